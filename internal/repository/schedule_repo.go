package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Werneck0live/loja-precificacao/internal/models"
)

type ScheduleRepository struct {
	coll *mongo.Collection
}

func NewScheduleRepository(db *mongo.Database) *ScheduleRepository {
	return &ScheduleRepository{coll: db.Collection("discount_schedules")}
}

func (r *ScheduleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "active", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("active_updated"),
	})
	return err
}

func (r *ScheduleRepository) Create(ctx context.Context, s *models.DiscountSchedule) error {
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSchedule
		}
		return err
	}
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error) {
	var s models.DiscountSchedule
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// GetActive devolve a tabela ativa. Se por algum motivo houver mais de uma,
// vale a atualizada por último.
func (r *ScheduleRepository) GetActive(ctx context.Context) (*models.DiscountSchedule, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	var s models.DiscountSchedule
	if err := r.coll.FindOne(ctx, bson.M{"active": true}, opts).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ScheduleRepository) GetAll(ctx context.Context, limit, skip int64) ([]models.DiscountSchedule, error) {
	opts := options.Find().SetLimit(limit).SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.DiscountSchedule{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Replace preserva created_at e o flag active do documento atual.
func (r *ScheduleRepository) Replace(ctx context.Context, id string, s *models.DiscountSchedule) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.ID = id
	s.Active = current.Active
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, s)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Activate marca id como ativa e desativa as demais.
// Sem transação: primeiro ativa (e confere que existe), depois desliga o resto.
func (r *ScheduleRepository) Activate(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"active": true, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	_, err = r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$ne": id}, "active": true},
		bson.M{"$set": bson.M{"active": false, "updated_at": now}},
	)
	return err
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
