package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Drawing 是画板元数据行，普通 CRUD 资源，与实时同步的版本控制无关。
type Drawing struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:191"`
	StoreJSON string    `gorm:"column:store;type:longtext;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (d *Drawing) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
