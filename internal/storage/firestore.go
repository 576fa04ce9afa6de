package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/save2win/save2win-front/internal/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Ensure FirestoreStorage implements Storage
var _ Storage = (*FirestoreStorage)(nil)

// FirestoreStorage keeps pending sign-ins in a Firestore collection, one
// document per pre-session ID. Consumption runs in a transaction.
type FirestoreStorage struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStorage creates a new Firestore storage instance
func NewFirestoreStorage(ctx context.Context, projectID, database, collection string) (*FirestoreStorage, error) {
	// Validate required parameters
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error

	// Firestore client with custom database
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:     client,
		collection: collection,
	}, nil
}

func (s *FirestoreStorage) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// SavePendingSignIn creates the document, failing if the ID is taken
func (s *FirestoreStorage) SavePendingSignIn(ctx context.Context, p PendingSignIn) error {
	_, err := s.doc(p.ID).Create(ctx, p)
	if status.Code(err) == codes.AlreadyExists {
		return ErrSignInExists
	}
	if err != nil {
		return fmt.Errorf("failed to store pending sign-in: %w", err)
	}
	return nil
}

// ConsumePendingSignIn reads and deletes the document in one transaction
func (s *FirestoreStorage) ConsumePendingSignIn(ctx context.Context, id, state string) (*PendingSignIn, error) {
	ref := s.doc(id)
	var p PendingSignIn

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrSignInNotFound
			}
			return fmt.Errorf("failed to get pending sign-in: %w", err)
		}

		if err := doc.DataTo(&p); err != nil {
			return fmt.Errorf("failed to unmarshal pending sign-in: %w", err)
		}

		return tx.Delete(ref)
	})

	if err != nil {
		if errors.Is(err, ErrSignInNotFound) || status.Code(err) == codes.NotFound {
			return nil, ErrSignInNotFound
		}
		return nil, fmt.Errorf("failed to consume pending sign-in: %w", err)
	}

	if p.IsExpired(time.Now()) {
		return nil, ErrSignInNotFound
	}
	if !statesMatch(p.State, state) {
		return nil, ErrStateMismatch
	}
	return &p, nil
}

// CleanupExpired removes all expired pending sign-ins
func (s *FirestoreStorage) CleanupExpired(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).
		Where("expires_at", "<=", time.Now()).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	batch := s.client.Batch()
	batchSize := 0
	const maxBatchSize = 500 // Firestore batch write limit

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to iterate expired sign-ins: %w", err)
		}

		batch.Delete(doc.Ref)
		batchSize++
		count++

		// Commit batch if we hit the limit
		if batchSize >= maxBatchSize {
			if _, err := batch.Commit(ctx); err != nil {
				return count, fmt.Errorf("failed to commit batch: %w", err)
			}
			batch = s.client.Batch()
			batchSize = 0
		}
	}

	// Commit remaining deletes
	if batchSize > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return count, fmt.Errorf("failed to commit final batch: %w", err)
		}
	}

	if count > 0 {
		log.LogDebugWithFields("firestore", "Deleted expired pending sign-ins", map[string]any{
			"count": count,
		})
	}

	return count, nil
}

// Close closes the Firestore client
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}
