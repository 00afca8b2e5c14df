package controller

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestUserCountIsNumeric(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	annRepo := repository.NewAnnouncementRepository(db)
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000001"}))
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000002"}))
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000003"}))

	c := NewUserController(service.NewUserService(userRepo, annRepo, nil, nil))
	router := gin.New()
	router.GET("/api/user/count", c.Count)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/count", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// count 是数字而不是字符串
	assert.Contains(t, w.Body.String(), `"count":3`)
	assert.NotContains(t, w.Body.String(), `"count":"3"`)
}
