package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"reservo/config"
	"reservo/di"
	"reservo/internal/domains/auth/model/dto"
	tableModel "reservo/internal/domains/table/model"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	"reservo/shared/failure"
	"reservo/shared/logger"
	gModel "reservo/shared/model"
	"reservo/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	envAdminEmail    = "SEED_ADMIN_EMAIL"
	envAdminPassword = "SEED_ADMIN_PASSWORD"
)

type tableSeed struct {
	floor     int
	tableType string
	capacity  int
	notes     string
}

var floorPlan = []tableSeed{
	{1, tableModel.TypeWindow, 2, "Cạnh cửa sổ"},
	{1, tableModel.TypeWindow, 2, "Cạnh cửa sổ"},
	{1, tableModel.TypeIndoor, 4, ""},
	{1, tableModel.TypeIndoor, 4, ""},
	{1, tableModel.TypeIndoor, 6, ""},
	{1, tableModel.TypeBar, 2, "Quầy bar"},
	{1, tableModel.TypeBooth, 4, "Ghế sofa"},
	{2, tableModel.TypeIndoor, 4, ""},
	{2, tableModel.TypeIndoor, 8, "Bàn dài cho nhóm"},
	{2, tableModel.TypePrivate, 10, "Phòng riêng"},
	{2, tableModel.TypePrivate, 12, "Phòng riêng có máy chiếu"},
	{3, tableModel.TypeOutdoor, 4, "Sân thượng"},
	{3, tableModel.TypeOutdoor, 6, "Sân thượng"},
}

func main() {
	cfg := config.Get()

	logger.Setup(cfg)

	seeder := di.InitializeSeeder()

	err := run(context.Background(), seeder)

	if closeErr := seeder.DB.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close database")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, seeder *di.Seeder) error {
	if err := seedAdmin(ctx, seeder); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	if err := seedTables(ctx, seeder); err != nil {
		return fmt.Errorf("failed to seed tables: %w", err)
	}

	return nil
}

func seedAdmin(ctx context.Context, seeder *di.Seeder) error {
	email, password := os.Getenv(envAdminEmail), os.Getenv(envAdminPassword)
	if email == constant.Empty || password == constant.Empty {
		log.Warn().Msgf("%s or %s not set, skipping admin account", envAdminEmail, envAdminPassword)

		return nil
	}

	err := seeder.Auth.CreateStaff(ctx, dto.CreateStaffRequest{Email: email, Password: password, Level: constant.RoleAdmin})

	var fail *failure.Failure
	if errors.As(err, &fail) && fail.Code == http.StatusConflict {
		log.Info().Str("email", email).Msg("admin account already exists")

		return nil
	}

	return err
}

func seedTables(ctx context.Context, seeder *di.Seeder) error {
	count, err := seeder.Tables.Count(ctx, gDto.FilterGroup{})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Info().Int("tables", count).Msg("tables already seeded")

		return nil
	}

	now := timezone.Now()

	for _, seed := range floorPlan {
		id, err := seeder.Tables.Create(ctx, tableModel.Table{
			Capacity:  seed.capacity,
			TableType: seed.tableType,
			Floor:     seed.floor,
			Status:    tableModel.StatusAvailable,
			Notes:     seed.notes,
			Metadata: gModel.Metadata{
				CreatedAt:  now,
				ModifiedAt: now,
				CreatedBy:  constant.ContextSystem,
				ModifiedBy: constant.ContextSystem,
			},
		})
		if err != nil {
			return err
		}

		log.Info().Int64("table_id", id).Int("floor", seed.floor).Str("type", seed.tableType).Msg("table seeded")
	}

	return nil
}
