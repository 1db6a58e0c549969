package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

const (
	collectionUsers = "users"

	indexUsernameUnique = "users_username_unique"
	indexEmailUnique    = "users_email_unique"
)

// UserRepository implements ports.UserRepository using MongoDB. Uniqueness is
// enforced by the unique indexes created in EnsureIndexes.
type UserRepository struct {
	col *mongo.Collection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

var _ ports.UserRepository = (*UserRepository)(nil)

// EnsureIndexes creates the unique and listing indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, userIndexes())
	return err
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsernameUnique).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmailUnique).SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
	}
}

// Insert writes a new user document.
func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if field, ok := duplicateField(err); ok {
			return nil, domain.NewConflictError(field, fieldValue(u, field))
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, key string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewUserNotFound(key)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, key, value, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{key: value}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by %s: %w", key, err)
	}
	return n > 0, nil
}

// Update atomically applies the patch and returns the document as it is
// after the write.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := patchDocument(patch)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u domain.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewUserNotFound(id)
		}
		if field, ok := duplicateField(err); ok {
			return nil, domain.NewConflictError(field, patchValue(patch, field))
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NewUserNotFound(id)
	}
	return nil
}

// List counts the filtered set and fetches one sorted page of it.
func (r *UserRepository) List(ctx context.Context, q ports.ListUsersQuery) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildFilter(q.Filter)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users := make([]*domain.User, 0, q.PageSize)
	if total <= q.Offset() {
		return users, total, nil
	}

	opts := options.Find().
		SetSort(buildSort(q.SortBy, q.SortDesc)).
		SetSkip(q.Offset()).
		SetLimit(int64(q.PageSize))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return users, total, nil
}

type roleActiveCount struct {
	ID struct {
		Role   domain.Role `bson:"role"`
		Active bool        `bson:"active"`
	} `bson:"_id"`
	Count int64 `bson:"count"`
}

// Statistics groups the collection by role and active flag in one pass.
func (r *UserRepository) Statistics(ctx context.Context) (*domain.UserStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"role": "$role", "active": "$active"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate user statistics: %w", err)
	}
	var rows []roleActiveCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode user statistics: %w", err)
	}
	return foldStatistics(rows), nil
}

func foldStatistics(rows []roleActiveCount) *domain.UserStatistics {
	stats := domain.NewUserStatistics()
	for _, row := range rows {
		stats.Total += row.Count
		if row.ID.Active {
			stats.Active += row.Count
		} else {
			stats.Inactive += row.Count
		}
		stats.ByRole[row.ID.Role] += row.Count
	}
	return stats
}

func patchDocument(p domain.UserPatch) bson.M {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.FirstName != nil {
		set["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		set["last_name"] = *p.LastName
	}
	if p.Role != nil {
		set["role"] = string(*p.Role)
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	return set
}

// duplicateField reports which user unique index a write violated. The server
// names the index in the error message. Any other duplicate key, such as an
// _id collision, is not a field conflict.
func duplicateField(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmailUnique), strings.Contains(msg, "dup key: { email"):
		return "email", true
	case strings.Contains(msg, indexUsernameUnique), strings.Contains(msg, "dup key: { username"):
		return "username", true
	default:
		return "", false
	}
}

func fieldValue(u *domain.User, field string) string {
	if field == "email" {
		return u.Email
	}
	return u.Username
}

func patchValue(p domain.UserPatch, field string) string {
	v := p.Username
	if field == "email" {
		v = p.Email
	}
	if v == nil {
		return ""
	}
	return *v
}
