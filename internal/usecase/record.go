package usecase

import (
	"context"

	"github.com/pkg/errors"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
)

type RecordUsecase struct {
	repo RecordRepository
}

func NewRecordUsecase(repo RecordRepository) *RecordUsecase {
	return &RecordUsecase{repo: repo}
}

func (uc *RecordUsecase) Get(ctx context.Context, steamID lobbywatch.SteamID) (domain.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Get")
	defer span.End()

	return uc.repo.Get(ctx, steamID)
}

func (uc *RecordUsecase) Save(ctx context.Context, record domain.PlayerRecord) error {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Save")
	defer span.End()

	if record.SteamID == 0 {
		return errors.New("record without steamid")
	}
	if record.CustomData == nil {
		record.CustomData = domain.EmptyCustomData()
	}
	if record.PreviousNames == nil {
		record.PreviousNames = []string{}
	}

	err := uc.repo.Upsert(ctx, record)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "save record")
	}
	return nil
}

func (uc *RecordUsecase) List(ctx context.Context, verdict *domain.Verdict) ([]domain.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.List")
	defer span.End()

	return uc.repo.List(ctx, verdict)
}
