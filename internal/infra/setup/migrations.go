package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"collaborative-canvas/internal/domain"
)

// MigrateDB 迁移全部表结构。
// room_documents 的 room_id 唯一索引是惰性创建去重的前提，
// 必须和条件更新使用同一列，缺失时并发 join 会产生重复行。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.RoomDocument{},
		&domain.Drawing{},
		&domain.StoreCommit{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
