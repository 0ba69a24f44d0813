package storage

import (
	"context"
	"strconv"
	"time"

	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	"github.com/AzielCF/az-mediaext/pkg/usersession"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userModel es el modelo de persistencia para GORM. Mantiene el dominio
// puro al no añadir tags de GORM en los structs de dominio.
type userModel struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	Banned    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (userModel) TableName() string {
	return "users"
}

// destinationModel guarda los destinos de reenvío por usuario.
type destinationModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"index;column:user_id;not null"`
	Name      string    `gorm:"not null"`
	ChatID    string    `gorm:"column:chat_id;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (destinationModel) TableName() string {
	return "destinations"
}

// settingModel es un key/value simple para ajustes del bot.
type settingModel struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (settingModel) TableName() string {
	return "bot_settings"
}

const settingAllowAnonymous = "allow_anonymous"

// UserStore implementa el directorio de usuarios permitidos/baneados y
// sus destinos de reenvío usando GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Init inicializa el esquema usando AutoMigrate.
func (s *UserStore) Init(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&userModel{}, &destinationModel{}, &settingModel{})
}

// Seed incorpora los IDs de la configuración sin pisar el estado ya
// persistido por los comandos de administración.
func (s *UserStore) Seed(ctx context.Context, allowed, banned []int64) error {
	for _, id := range allowed {
		model := userModel{UserID: id, Banned: false}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
			return err
		}
	}
	for _, id := range banned {
		if err := s.Ban(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Allow da acceso a un usuario (y le quita el ban si lo tenía).
func (s *UserStore) Allow(ctx context.Context, userID int64) error {
	model := userModel{UserID: userID, Banned: false}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"banned": false}),
	}).Create(&model).Error
}

// Ban marca a un usuario como baneado, exista o no previamente.
func (s *UserStore) Ban(ctx context.Context, userID int64) error {
	model := userModel{UserID: userID, Banned: true}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"banned": true}),
	}).Create(&model).Error
}

// Remove elimina a un usuario del directorio.
func (s *UserStore) Remove(ctx context.Context, userID int64) error {
	result := s.db.WithContext(ctx).Delete(&userModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("user " + strconv.FormatInt(userID, 10) + " not found")
	}
	return nil
}

// AllowedIDs retorna los usuarios con acceso, en orden de alta.
func (s *UserStore) AllowedIDs(ctx context.Context) ([]int64, error) {
	return s.idsWhere(ctx, "banned = ?", false)
}

// BannedIDs retorna los usuarios baneados.
func (s *UserStore) BannedIDs(ctx context.Context) ([]int64, error) {
	return s.idsWhere(ctx, "banned = ?", true)
}

func (s *UserStore) idsWhere(ctx context.Context, query string, args ...any) ([]int64, error) {
	var models []userModel
	err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(models))
	for i, m := range models {
		ids[i] = m.UserID
	}
	return ids, nil
}

// AllowAnonymous lee el flag de acceso anónimo. defaultValue se usa si
// nunca se persistió.
func (s *UserStore) AllowAnonymous(ctx context.Context, defaultValue bool) (bool, error) {
	var model settingModel
	err := s.db.WithContext(ctx).First(&model, "key = ?", settingAllowAnonymous).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return defaultValue, nil
		}
		return defaultValue, err
	}
	return model.Value == "1", nil
}

// SetAllowAnonymous persiste el flag de acceso anónimo.
func (s *UserStore) SetAllowAnonymous(ctx context.Context, allowed bool) error {
	value := "0"
	if allowed {
		value = "1"
	}
	model := settingModel{Key: settingAllowAnonymous, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{"value": value}),
	}).Create(&model).Error
}

// Destinations retorna los destinos de reenvío del usuario.
func (s *UserStore) Destinations(ctx context.Context, userID int64) ([]usersession.Destination, error) {
	var models []destinationModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]usersession.Destination, len(models))
	for i, m := range models {
		result[i] = usersession.Destination{Name: m.Name, ChatID: m.ChatID}
	}
	return result, nil
}

// AddDestination registra un destino de reenvío. Un nombre repetido
// para el mismo usuario actualiza el chat destino.
func (s *UserStore) AddDestination(ctx context.Context, userID int64, name, chatID string) error {
	var existing destinationModel
	err := s.db.WithContext(ctx).First(&existing, "user_id = ? AND name = ?", userID, name).Error
	if err == nil {
		existing.ChatID = chatID
		return s.db.WithContext(ctx).Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	model := destinationModel{UserID: userID, Name: name, ChatID: chatID}
	return s.db.WithContext(ctx).Create(&model).Error
}

// RemoveDestination borra un destino por nombre.
func (s *UserStore) RemoveDestination(ctx context.Context, userID int64, name string) error {
	result := s.db.WithContext(ctx).Delete(&destinationModel{}, "user_id = ? AND name = ?", userID, name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("destination " + name + " not found")
	}
	return nil
}
