// Package users is a resource module laid out Model / Schema / Service /
// Repository. Its provider binds the repository as a singleton, the service
// per request scope and the clock as transient, and mounts the controller
// on the router.
package users

import "time"

// User is the stored model.
type User struct {
	ID        int64     `json:"id" yaml:"id" gorm:"primaryKey"`
	Name      string    `json:"name" yaml:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" yaml:"email" gorm:"size:255;not null;index"`
	Age       int       `json:"age" yaml:"age"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" gorm:"autoUpdateTime:false"`
}
