package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
)

// UsersHandler is the admin console's user management surface: listing
// accounts and granting or revoking the admin role.
type UsersHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type userSummary struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone"`
	Roles    []string `json:"roles"`
}

func (h *UsersHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		s := userSummary{ID: u.ID, Username: u.Username, Roles: []string{}}

		var profile models.Profile
		if err := h.DB.Where("user_id = ?", u.ID).First(&profile).Error; err == nil {
			s.FullName = profile.FullName
			s.Phone = profile.Phone
		}

		var roles []models.UserRole
		if err := h.DB.Where("user_id = ?", u.ID).Find(&roles).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, r := range roles {
			s.Roles = append(s.Roles, r.Role)
		}
		summaries = append(summaries, s)
	}

	return c.JSON(http.StatusOK, summaries)
}

// GrantAdmin is idempotent: granting an existing admin succeeds unchanged.
func (h *UsersHandler) GrantAdmin(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var existing models.UserRole
	err = h.DB.Where("user_id = ? AND role = ?", user.ID, "admin").First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusOK, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	role := models.UserRole{UserID: user.ID, Role: "admin"}
	if err := h.DB.Create(&role).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	Publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "role_granted",
		"userID": user.ID,
		"role":   "admin",
	})
	return c.JSON(http.StatusOK, role)
}

func (h *UsersHandler) RevokeAdmin(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result := h.DB.Where("user_id = ? AND role = ?", userID, "admin").Delete(&models.UserRole{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "role not found")
	}

	Publish(c, h.Producer, "user_events", fmt.Sprint(userID), map[string]any{
		"type":   "role_revoked",
		"userID": userID,
		"role":   "admin",
	})
	return c.NoContent(http.StatusNoContent)
}
