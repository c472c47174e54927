package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormRepository stores users in the "users" table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository migrates the users table and returns a repository on db.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("users: migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) Find(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return u, err
}

func (r *GormRepository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := emailTakenTx(tx, u.Email, 0); err != nil {
			return err
		}
		return tx.Create(u).Error
	})
}

func (r *GormRepository) Update(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).Where("id = ?", u.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, u.ID)
		}
		if err := emailTakenTx(tx, u.Email, u.ID); err != nil {
			return err
		}
		return tx.Save(u).Error
	})
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return nil
}

func emailTakenTx(tx *gorm.DB, email string, except int64) error {
	var n int64
	err := tx.Model(&User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, except).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrEmailTaken
	}
	return nil
}
