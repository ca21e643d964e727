package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gridgames/tictactoe-server/internal/entity"
)

var ErrResultNotFound = errors.New("match result not found")

const (
	resultKeyPrefix  = "result:"
	recentResultsKey = "results:recent"

	// recentResultsLimit caps the recent list so the archive never grows
	// unbounded.
	recentResultsLimit = 100
)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.MatchResult) error
	GetByRoomID(ctx context.Context, roomID string) (*entity.MatchResult, error)
	Recent(ctx context.Context, limit int64) ([]*entity.MatchResult, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func (that *dbResult) Save(ctx context.Context, result *entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal match result: %w", err)
	}

	resultKey := resultKeyPrefix + result.RoomID
	if err = that.client.Set(ctx, resultKey, resultJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match result: %w", err)
	}

	if err = that.client.LPush(ctx, recentResultsKey, resultJSON).Err(); err != nil {
		return fmt.Errorf("failed to push match result to recent list: %w", err)
	}

	if err = that.client.LTrim(ctx, recentResultsKey, 0, recentResultsLimit-1).Err(); err != nil {
		return fmt.Errorf("failed to trim recent results list: %w", err)
	}

	return nil
}

func (that *dbResult) GetByRoomID(ctx context.Context, roomID string) (*entity.MatchResult, error) {
	resultKey := resultKeyPrefix + roomID

	response, err := that.client.Get(ctx, resultKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match result by room ID: %w", err)
	}

	var result entity.MatchResult
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
	}

	return &result, nil
}

func (that *dbResult) Recent(ctx context.Context, limit int64) ([]*entity.MatchResult, error) {
	if limit <= 0 || limit > recentResultsLimit {
		limit = recentResultsLimit
	}

	responses, err := that.client.LRange(ctx, recentResultsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent match results: %w", err)
	}

	results := make([]*entity.MatchResult, 0, len(responses))
	for _, response := range responses {
		var result entity.MatchResult
		if err = json.Unmarshal([]byte(response), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
		}

		results = append(results, &result)
	}

	return results, nil
}
