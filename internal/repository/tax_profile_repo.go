package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Werneck0live/loja-precificacao/internal/models"
)

type TaxProfileRepository struct {
	coll *mongo.Collection
}

func NewTaxProfileRepository(db *mongo.Database) *TaxProfileRepository {
	return &TaxProfileRepository{coll: db.Collection("tax_profiles")}
}

func (r *TaxProfileRepository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{{Key: "cnpj", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_cnpj"),
	}
	_, err := r.coll.Indexes().CreateOne(ctx, model)
	if err == nil {
		return nil
	}
	// Se já existir com outra opção, tenta dropar e recriar
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 85 { // IndexOptionsConflict
		if _, dropErr := r.coll.Indexes().DropOne(ctx, "uniq_cnpj"); dropErr != nil {
			return fmt.Errorf("drop index uniq_cnpj: %w", dropErr)
		}
		_, createErr := r.coll.Indexes().CreateOne(ctx, model)
		return createErr
	}
	return err
}

func (r *TaxProfileRepository) Create(ctx context.Context, p *models.TaxProfile) (string, error) {
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		if isDuplicateKey(err) {
			return "", ErrDuplicateCNPJ
		}
		return "", err
	}
	id, _ := res.InsertedID.(string) // _id é o CNPJ (string)
	return id, nil
}

func (r *TaxProfileRepository) GetByID(ctx context.Context, id string) (*models.TaxProfile, error) {
	var p models.TaxProfile
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *TaxProfileRepository) GetAll(ctx context.Context, limit, skip int64) ([]models.TaxProfile, error) {
	opts := options.Find().SetLimit(limit).SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.TaxProfile{}
	for cur.Next(ctx) {
		var p models.TaxProfile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, cur.Err()
}

// Update grava só os campos preenchidos em upd. Os campos calculados
// (faixa/alíquotas/imposto) vão juntos sempre que Faixa != 0.
func (r *TaxProfileRepository) Update(ctx context.Context, id string, upd *models.TaxProfile) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if upd.NomeFantasia != "" {
		set["nome_fantasia"] = upd.NomeFantasia
	}
	if upd.RazaoSocial != "" {
		set["razao_social"] = upd.RazaoSocial
	}
	if upd.CNPJ != "" {
		set["cnpj"] = upd.CNPJ
	}
	if upd.Anexo != "" {
		set["anexo"] = upd.Anexo
	}
	if upd.Faixa != 0 {
		set["receita_bruta_12m"] = upd.ReceitaBruta12M
		set["faixa"] = upd.Faixa
		set["aliquota_nominal"] = upd.AliquotaNominal
		set["aliquota_efetiva"] = upd.AliquotaEfetiva
		set["imposto_estimado"] = upd.ImpostoEstimado
	}

	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCNPJ
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaxProfileRepository) Replace(ctx context.Context, id string, p *models.TaxProfile) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, p)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCNPJ
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaxProfileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
