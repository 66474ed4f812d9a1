package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRecords наполняет репозиторий записями с возрастающим created_at:
// r0 — самая старая, r<n-1> — самая свежая.
func seedRecords(repo *recordRepoFake, n int) {
	for i := 0; i < n; i++ {
		repo.records = append(repo.records, &domain.Record{
			ID:        fmt.Sprintf("r%d", i),
			Type:      domain.RecordTypeTextChunk,
			CreatedAt: int64(i + 1),
		})
	}
}

func remainingIDs(repo *recordRepoFake) []string {
	ids := make([]string, 0, len(repo.records))
	for _, record := range repo.records {
		ids = append(ids, record.ID)
	}
	return ids
}

func TestDeleteOldest_RemovesEarliestBatch(t *testing.T) {
	repo := &recordRepoFake{}
	seedRecords(repo, 5)

	uc := NewRetentionUC(repo, nil, &cfg.RetentionCfg{}, logger.NewNopLogger())

	deleted, err := uc.DeleteOldest(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{"r2", "r3", "r4"}, remainingIDs(repo))
}

func TestDeleteOldest_BatchLargerThanCollection(t *testing.T) {
	repo := &recordRepoFake{}
	seedRecords(repo, 3)

	uc := NewRetentionUC(repo, nil, &cfg.RetentionCfg{}, logger.NewNopLogger())

	deleted, err := uc.DeleteOldest(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, deleted)
	assert.Empty(t, repo.records)
}

func TestDeleteOldest_EmptyCollectionIsNotAnError(t *testing.T) {
	repo := &recordRepoFake{}
	uc := NewRetentionUC(repo, nil, &cfg.RetentionCfg{}, logger.NewNopLogger())

	deleted, err := uc.DeleteOldest(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDeleteOldest_RemovesArchivedImages(t *testing.T) {
	// Вытеснение image-записи должно подчищать её объект в архиве,
	// иначе архив копит объекты без записей
	repo := &recordRepoFake{}
	seedRecords(repo, 2)
	repo.records = append(repo.records, &domain.Record{
		ID:        "img0",
		Type:      domain.RecordTypeImage,
		ImageKey:  "articles/img0.jpg",
		CreatedAt: 0, // самая старая запись
	})

	imageRepo := &imageRepoFake{}
	uc := NewRetentionUC(repo, imageRepo, &cfg.RetentionCfg{}, logger.NewNopLogger())

	deleted, err := uc.DeleteOldest(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	// Удалены img0 и r0; в архив ушёл ровно один ключ
	assert.ElementsMatch(t, []string{"r1"}, remainingIDs(repo))
	assert.Equal(t, []string{"articles/img0.jpg"}, imageRepo.deletedKeys)
}

func TestDeleteOldest_ArchiveFailureIsBestEffort(t *testing.T) {
	repo := &recordRepoFake{}
	repo.records = append(repo.records, &domain.Record{
		ID:        "img0",
		Type:      domain.RecordTypeImage,
		ImageKey:  "articles/img0.jpg",
		CreatedAt: 1,
	})

	imageRepo := &imageRepoFake{deleteErr: errors.New("minio unavailable")}
	uc := NewRetentionUC(repo, imageRepo, &cfg.RetentionCfg{}, logger.NewNopLogger())

	deleted, err := uc.DeleteOldest(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.Empty(t, repo.records)
}

func TestEnforceBudget_WithinBudgetIsNoOp(t *testing.T) {
	repo := &recordRepoFake{}
	seedRecords(repo, 5)

	retention := &cfg.RetentionCfg{
		MaxStorageBytes: 100,
		BatchSize:       2,
		AvgRecordBytes:  10, // 5 * 10 = 50 <= 100
	}
	uc := NewRetentionUC(repo, nil, retention, logger.NewNopLogger())

	stats, err := uc.EnforceBudget(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(5), stats.RecordCount)
	assert.Equal(t, int64(50), stats.EstimatedBytes)
	assert.False(t, stats.Triggered)
	assert.Zero(t, stats.Deleted)
	assert.Len(t, repo.records, 5)
}

func TestEnforceBudget_OverBudgetDeletesOneBatch(t *testing.T) {
	repo := &recordRepoFake{}
	seedRecords(repo, 5)

	retention := &cfg.RetentionCfg{
		MaxStorageBytes: 30,
		BatchSize:       2,
		AvgRecordBytes:  10, // 5 * 10 = 50 > 30
	}
	uc := NewRetentionUC(repo, nil, retention, logger.NewNopLogger())

	stats, err := uc.EnforceBudget(context.Background())
	require.NoError(t, err)

	assert.True(t, stats.Triggered)
	assert.Equal(t, 2, stats.Deleted)
	// Удаляется ровно одна партия самых старых, даже если занятость всё ещё выше потолка
	assert.ElementsMatch(t, []string{"r2", "r3", "r4"}, remainingIDs(repo))
}
