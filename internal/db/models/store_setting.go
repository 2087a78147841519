package models

// StoreSetting represents a configuration setting scoped to one store.
// Values are stored as raw bytes; typed accessors live in the storesetting
// controller package.
type StoreSetting struct {
	ID      uint64 `gorm:"primaryKey"`
	StoreID uint64 `gorm:"column:store_id;uniqueIndex:idx_store_setting_name;not null"`
	Name    string `gorm:"uniqueIndex:idx_store_setting_name;size:100;not null"`
	Value   []byte `gorm:"type:blob"`
}

// TableName specifies the database table name for the StoreSetting model.
func (StoreSetting) TableName() string {
	return "store_settings"
}
