package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
)

type recordRow struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Payload   string    `gorm:"column:payload;type:jsonb"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (recordRow) TableName() string {
	return "ledger_records"
}

// PostgresRepository keeps one canonical Record document per user in a JSONB
// column.
type PostgresRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Load(ctx context.Context, cred syncdomain.Credential) (*ledger.Record, error) {
	var row recordRow
	err := r.db.WithContext(ctx).Where("user_id = ?", cred.UserID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record, err := ledger.Decode([]byte(row.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return &record, nil
}

func (r *PostgresRepository) Save(ctx context.Context, cred syncdomain.Credential, record ledger.Record) error {
	payload, err := ledger.Encode(record)
	if err != nil {
		return err
	}

	row := recordRow{
		UserID:    cred.UserID,
		Payload:   string(payload),
		UpdatedAt: r.now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, cred syncdomain.Credential) error {
	return r.db.WithContext(ctx).Where("user_id = ?", cred.UserID).Delete(&recordRow{}).Error
}
