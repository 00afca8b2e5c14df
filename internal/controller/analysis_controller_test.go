package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAnalysisRouter(t *testing.T, upstreamBase string) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Sxt: config.SxtConfig{
			APIBase:        upstreamBase,
			PortalBase:     upstreamBase,
			Timeout:        5 * time.Second,
			MinInterval:    time.Millisecond,
			SmsMinInterval: time.Millisecond,
		},
		Cache: config.CacheConfig{ReportTTL: time.Hour},
	}

	reportRepo := repository.NewExamReportRepository(db)
	analysisSvc := service.NewAnalysisService(reportRepo, sxt.NewClient(cfg.Sxt, nil), cfg)
	c := NewAnalysisController(analysisSvc)

	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set("user", &model.User{
			Account:      "13800000000",
			SxtUserID:    "stu-1",
			ClassID:      "class-1",
			Token:        "tok",
			RefreshToken: "ref",
		})
	})
	router.GET("/api/analysis/question/:examCourseId", c.Question)
	return router
}

func TestAnalysisTrendDefaultsToOne(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"success":true,"data":[{"questionNo":1}]}`))
	}))
	defer srv.Close()

	router := setupAnalysisRouter(t, srv.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/question/course-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, gotBody)
	assert.Equal(t, float64(1), gotBody["courseChooseTrend"])
}

func TestAnalysisTrendFromQuery(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	router := setupAnalysisRouter(t, srv.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/question/course-1?courseChooseTrend=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, gotBody)
	assert.Equal(t, float64(2), gotBody["courseChooseTrend"])
}
