package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
	"github.com/linkvault/linkvault/pkg/util"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Gorm struct {
	DSN string `mapstructure:"dsn"`

	db *gorm.DB
}

func NewGorm(conf config.Database) (*Gorm, error) {
	rc := util.ConfigToStruct[Gorm](conf.Settings)
	var (
		db  *gorm.DB
		err error
	)
	switch conf.Type {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(rc.DSN), &gorm.Config{TranslateError: true})
	case "postgres":
		db, err = gorm.Open(postgres.Open(rc.DSN), &gorm.Config{TranslateError: true})
	default:
		return nil, fmt.Errorf("unknown database type: %s", conf.Type)
	}
	if err != nil {
		return nil, err
	}

	rc.db = db

	if err := db.AutoMigrate(&models.Share{}); err != nil {
		return nil, err
	}

	return rc, nil
}

func (s *Gorm) CreateShare(ctx context.Context, share *models.Share) error {
	res := s.db.WithContext(ctx).Create(share)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateShareID
		}
		return res.Error
	}
	return nil
}

func (s *Gorm) GetShare(ctx context.Context, shareID string) (models.Share, error) {
	var share models.Share
	res := s.db.WithContext(ctx).First(&share, "share_id = ?", shareID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return models.Share{}, models.ErrShareNotFound
		}
		return models.Share{}, res.Error
	}
	return share, nil
}

func (s *Gorm) RecordShareView(ctx context.Context, shareID string) (models.Share, error) {
	var share models.Share
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Share{}).
			Where("share_id = ?", shareID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrShareNotFound
		}
		return tx.First(&share, "share_id = ?", shareID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Share{}, models.ErrShareNotFound
		}
		return models.Share{}, err
	}
	return share, nil
}

func (s *Gorm) DeleteShare(ctx context.Context, shareID string) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Where("share_id = ?", shareID).Delete(&models.Share{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *Gorm) GetSharesByOwner(ctx context.Context, ownerID string) ([]models.ShareInfo, error) {
	var shares []models.Share
	res := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&shares)
	if res.Error != nil {
		return nil, res.Error
	}

	infos := make([]models.ShareInfo, 0, len(shares))
	for _, share := range shares {
		infos = append(infos, share.Info())
	}
	return infos, nil
}

func (s *Gorm) GetExpiredShares(ctx context.Context, now time.Time) ([]models.Share, error) {
	var shares []models.Share
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Find(&shares)
	if res.Error != nil {
		return nil, res.Error
	}
	return shares, nil
}
