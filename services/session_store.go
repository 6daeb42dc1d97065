package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"matchmaking_server/models"
	"matchmaking_server/utils"
)

// DynamoSessionStore persists sessions in a DynamoDB table whose TTL
// attribute is expiresAt. DynamoDB reaps expired items lazily, so Get checks
// the expiry itself: an expired-but-unreaped record and a missing record are
// both reported as ErrSessionNotFound.
type DynamoSessionStore struct {
	Dynamo *DynamoService
	Table  string
	Now    func() time.Time // Defaults to time.Now; injectable for tests
}

func (st *DynamoSessionStore) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

// Put stores the session record keyed by id.
func (st *DynamoSessionStore) Put(ctx context.Context, session models.Session) error {
	if err := st.Dynamo.PutItem(ctx, st.Table, session); err != nil {
		return fmt.Errorf("failed to store session %q: %w", session.ID, err)
	}
	return nil
}

// Get returns the session for id, or ErrSessionNotFound when it is missing
// or past its expiry.
func (st *DynamoSessionStore) Get(ctx context.Context, id string) (models.Session, error) {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
	item, err := st.Dynamo.GetItem(ctx, st.Table, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("failed to load session %q: %w", id, err)
	}

	if expiresAt := utils.ExtractNumber(item, "expiresAt"); expiresAt <= st.now().Unix() {
		return models.Session{}, ErrSessionNotFound
	}

	var session models.Session
	if err := attributevalue.UnmarshalMap(item, &session); err != nil {
		return models.Session{}, fmt.Errorf("failed to unmarshal session %q: %w", id, err)
	}
	return session, nil
}
