package credits

import (
	"errors"

	"github.com/launchkit/launchkit/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a credit repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InsertEntryAndIncrementBalance(entry *models.CreditLedgerEntry) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Duplicate delivery: leave balances untouched.
			return nil
		}
		created = true

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "credit_type"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance": gorm.Expr("balance + ?", entry.Amount),
			}),
		}).Create(&models.CreditBalance{
			UserID:     entry.UserID,
			CreditType: entry.CreditType,
			Balance:    entry.Amount,
		}).Error
	})
	return created, err
}

func (r *gormRepository) GetBalance(userID uint, creditType string) (int, error) {
	var balance models.CreditBalance
	err := r.db.Where("user_id = ? AND credit_type = ?", userID, creditType).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return balance.Balance, nil
}

func (r *gormRepository) GetPlan(planID string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("id = ?", planID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
