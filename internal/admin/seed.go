package admin

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

//go:embed seeds/tax_profiles.json
var taxProfilesJSON []byte

const DefaultScheduleID = "default"

type seedItem struct {
	CNPJ            string          `json:"cnpj"`
	NomeFantasia    string          `json:"nome_fantasia"`
	RazaoSocial     string          `json:"razao_social"`
	Anexo           string          `json:"anexo"`
	ReceitaBruta12M decimal.Decimal `json:"receita_bruta_12m"`
}

type ProfileStore interface {
	Create(ctx context.Context, p *models.TaxProfile) (string, error)
}

type ScheduleStore interface {
	Create(ctx context.Context, s *models.DiscountSchedule) error
	GetActive(ctx context.Context) (*models.DiscountSchedule, error)
	Activate(ctx context.Context, id string) error
}

// Seed roda os dois seeds; os dois são idempotentes.
func Seed(ctx context.Context, profiles ProfileStore, schedules ScheduleStore, log *slog.Logger) error {
	if err := SeedDefaultSchedule(ctx, schedules, log); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}
	if err := SeedTaxProfiles(ctx, profiles, log); err != nil {
		return fmt.Errorf("seed tax profiles: %w", err)
	}
	return nil
}

// SeedDefaultSchedule grava a tabela padrão e a ativa só se nenhuma outra estiver ativa.
func SeedDefaultSchedule(ctx context.Context, repo ScheduleStore, log *slog.Logger) error {
	s := models.NewDiscountSchedule(DefaultScheduleID, "Padrão", pricing.DefaultSchedule())
	ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch err := repo.Create(ictx, &s); {
	case err == nil:
		log.Info("seed_schedule_created", "id", s.ID)
	case errors.Is(err, repository.ErrDuplicateSchedule):
		log.Info("seed_schedule_exists", "id", s.ID)
	default:
		return err
	}

	active, err := repo.GetActive(ictx)
	switch {
	case err == nil:
		log.Info("seed_schedule_active_kept", "id", active.ID)
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}
	if err := repo.Activate(ictx, s.ID); err != nil {
		return err
	}
	log.Info("seed_schedule_activated", "id", s.ID)
	return nil
}

// Idempotente: cria se não existir; se já existir, ignora.
func SeedTaxProfiles(ctx context.Context, repo ProfileStore, log *slog.Logger) error {
	var items []seedItem
	if err := json.Unmarshal(taxProfilesJSON, &items); err != nil {
		return err
	}

	for _, s := range items {
		cnpj := utils.SanitizeCNPJ(s.CNPJ)
		if !utils.ValidateCNPJ(cnpj) {
			log.Warn("seed_skip_invalid_cnpj", "raw", s.CNPJ)
			continue
		}
		annex, err := tax.ParseAnnex(s.Anexo)
		if err != nil {
			log.Warn("seed_skip_invalid_annex", "cnpj", cnpj, "anexo", s.Anexo)
			continue
		}

		p := models.TaxProfile{
			ID:              cnpj, // CNPJ é o _id
			CNPJ:            cnpj,
			NomeFantasia:    s.NomeFantasia,
			RazaoSocial:     s.RazaoSocial,
			Anexo:           annex,
			ReceitaBruta12M: models.NewDecimal(s.ReceitaBruta12M),
		}
		p.Recompute()

		// timeout curto por item pra não travar
		ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_, err = repo.Create(ictx, &p)
		cancel()

		if err != nil {
			if errors.Is(err, repository.ErrDuplicateCNPJ) {
				log.Info("seed_tax_profile_exists", "cnpj", cnpj)
				continue
			}
			return err
		}
		log.Info("seed_tax_profile_created", "cnpj", cnpj, "faixa", p.Faixa)
	}

	log.Info("seed_tax_profiles_done", "count", len(items))
	return nil
}
