package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// userDocument is the stored shape of a user. Optional fields are omitted
// when unset so the sparse federatedId index ignores them.
type userDocument struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	Username    string    `bson:"username"`
	DisplayName string    `bson:"displayName"`
	Password    *string   `bson:"password,omitempty"`
	FederatedID *string   `bson:"federatedId,omitempty"`
	Provider    string    `bson:"provider"`
	ProfilePic  *string   `bson:"profilePic,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func fromModel(u model.User) userDocument {
	return userDocument{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Password:    u.PasswordHash,
		FederatedID: u.FederatedID,
		Provider:    string(u.Provider),
		ProfilePic:  u.ProfilePic,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDocument) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user id %q: %w", d.ID, err)
	}
	return model.User{
		ID:           id,
		Email:        d.Email,
		Username:     d.Username,
		DisplayName:  d.DisplayName,
		PasswordHash: d.Password,
		FederatedID:  d.FederatedID,
		Provider:     model.Provider(d.Provider),
		ProfilePic:   d.ProfilePic,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type UserRepository struct {
	coll   *mongo.Collection
	client *mongo.Client
	now    func() time.Time
}

func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{
		coll:   conn.Users(),
		client: conn.Client,
		now:    time.Now,
	}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	doc := fromModel(user)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return model.User{}, mapError("create user", err)
	}
	return doc.toModel()
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.findOne(ctx, "id", bson.M{"_id": id.String()})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, "email", bson.M{"email": email})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, "username", bson.M{"username": username})
}

func (r *UserRepository) GetByFederatedID(ctx context.Context, federatedID string) (model.User, error) {
	return r.findOne(ctx, "federated id", bson.M{"federatedId": federatedID})
}

func (r *UserRepository) findOne(ctx context.Context, by string, filter bson.M) (model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return model.User{}, mapError("get user by "+by, err)
	}
	return doc.toModel()
}

func (r *UserRepository) LinkFederatedID(ctx context.Context, id uuid.UUID, federatedID string) (model.User, error) {
	filter := bson.M{
		"_id":         id.String(),
		"federatedId": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"federatedId": federatedID,
		"updatedAt":   r.now().UTC(),
	}}

	user, err := r.findOneAndUpdate(ctx, "link federated id", filter, update)
	if errors.Is(err, model.ErrNotFound) {
		// Already linked, or gone.
		return r.GetByID(ctx, id)
	}
	return user, err
}

func (r *UserRepository) SetProfilePic(ctx context.Context, id uuid.UUID, profilePic string) (model.User, error) {
	update := bson.M{"$set": bson.M{
		"profilePic": profilePic,
		"updatedAt":  r.now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, "set profile pic", bson.M{"_id": id.String()}, update)
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, op string, filter, update bson.M) (model.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return model.User{}, mapError(op, err)
	}
	return doc.toModel()
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, nil); err != nil {
		return mapError("ping database", err)
	}
	return nil
}
