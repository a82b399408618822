package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
	"github.com/totegamma/lobbywatch/internal/infra/database/models"
	"github.com/totegamma/lobbywatch/internal/usecase"
)

var tracer = otel.Tracer("repository")

type RecordRepository struct {
	db *gorm.DB
}

var _ usecase.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Get(ctx context.Context, steamID lobbywatch.SteamID) (domain.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "Record.Repository.Get")
	defer span.End()

	var row models.PlayerRecord
	err := r.db.WithContext(ctx).
		Where("steam_id = ?", steamID.String()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PlayerRecord{}, domain.NotFoundError{Resource: "player record"}
	}
	if err != nil {
		span.RecordError(err)
		return domain.PlayerRecord{}, err
	}

	return recordFromModel(row)
}

func (r *RecordRepository) Upsert(ctx context.Context, record domain.PlayerRecord) error {
	ctx, span := tracer.Start(ctx, "Record.Repository.Upsert")
	defer span.End()

	row, err := recordToModel(record)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "steam_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"custom_data", "verdict", "previous_names", "m_date"}),
	}).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// List returns stored records ordered by SteamID, optionally filtered by verdict.
func (r *RecordRepository) List(ctx context.Context, verdict *domain.Verdict) ([]domain.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "Record.Repository.List")
	defer span.End()

	query := r.db.WithContext(ctx).Order("steam_id")
	if verdict != nil {
		query = query.Where("verdict = ?", verdict.String())
	}

	var rows []models.PlayerRecord
	if err := query.Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]domain.PlayerRecord, 0, len(rows))
	for _, row := range rows {
		record, err := recordFromModel(row)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func recordToModel(record domain.PlayerRecord) (models.PlayerRecord, error) {
	names := record.PreviousNames
	if names == nil {
		names = []string{}
	}
	previousNames, err := json.Marshal(names)
	if err != nil {
		return models.PlayerRecord{}, pkgerrors.Wrap(err, "encode previous names")
	}

	customData := record.CustomData
	if len(customData) == 0 {
		customData = domain.EmptyCustomData()
	}

	return models.PlayerRecord{
		SteamID:       record.SteamID.String(),
		CustomData:    string(customData),
		Verdict:       record.Verdict.String(),
		PreviousNames: string(previousNames),
	}, nil
}

func recordFromModel(row models.PlayerRecord) (domain.PlayerRecord, error) {
	id, err := strconv.ParseUint(row.SteamID, 10, 64)
	if err != nil {
		return domain.PlayerRecord{}, pkgerrors.Wrapf(err, "stored steam id %q", row.SteamID)
	}

	verdict, err := domain.ParseVerdict(row.Verdict)
	if err != nil {
		return domain.PlayerRecord{}, err
	}

	previousNames := []string{}
	if row.PreviousNames != "" {
		if err := json.Unmarshal([]byte(row.PreviousNames), &previousNames); err != nil {
			return domain.PlayerRecord{}, pkgerrors.Wrap(err, "decode previous names")
		}
	}

	customData := domain.EmptyCustomData()
	if row.CustomData != "" {
		customData = json.RawMessage(row.CustomData)
	}

	return domain.PlayerRecord{
		SteamID:       lobbywatch.SteamID(id),
		CustomData:    customData,
		Verdict:       verdict,
		PreviousNames: previousNames,
	}, nil
}
