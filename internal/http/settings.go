package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/settings"
)

// SettingsController serves the reader appearance settings.
type SettingsController struct {
	settings SettingsStore
	log      *zap.Logger
}

func NewSettingsController(store SettingsStore, log *zap.Logger) *SettingsController {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsController{settings: store, log: log}
}

// requestKeys maps accepted JSON field names to setting keys. Both the
// camelCase form of settings.Reader and the stored key are accepted.
var requestKeys = map[string]string{
	"theme":     entities.SettingKeyTheme,
	"font":      entities.SettingKeyFont,
	"fontSize":  entities.SettingKeyFontSize,
	"font_size": entities.SettingKeyFontSize,
	"margin":    entities.SettingKeyMargin,
}

// GetSettings handles GET /api/settings.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	info, err := sc.settings.Info(GetUserID(c))
	if err != nil {
		respondInternalError(c, sc.log, err, "get settings")
		return
	}
	c.JSON(http.StatusOK, info)
}

// UpdateSettings handles PUT /api/settings. Fields not present are left
// unchanged; any invalid value rejects the whole request.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	values := make(map[string]string, len(req))
	for field, value := range req {
		key, ok := requestKeys[field]
		if !ok {
			respondBadRequest(c, "unknown setting "+field)
			return
		}
		values[key] = value
	}
	if len(values) == 0 {
		respondBadRequest(c, "no settings given")
		return
	}

	updated, err := sc.settings.Update(GetUserID(c), values)
	if errors.Is(err, settings.ErrInvalidValue) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, sc.log, err, "update settings")
		return
	}
	respondSuccess(c, "Settings updated", updated)
}

// ResetSettings handles DELETE /api/settings.
func (sc *SettingsController) ResetSettings(c *gin.Context) {
	userID := GetUserID(c)
	if err := sc.settings.Reset(userID); err != nil {
		respondInternalError(c, sc.log, err, "reset settings")
		return
	}
	info, err := sc.settings.Info(userID)
	if err != nil {
		respondInternalError(c, sc.log, err, "get settings")
		return
	}
	respondSuccess(c, "Settings reset", info.Settings)
}
