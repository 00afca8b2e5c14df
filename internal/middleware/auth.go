package middleware

import (
	"net/http"
	"strings"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token := c.GetHeader("token"); token != "" {
		return token
	}
	return c.Query("token")
}

// AuthMiddleware 学生端认证。校验 JWT 后加载完整用户记录放入上下文，
// 被封禁的账号带理由拒绝。
func AuthMiddleware(userRepo *repository.UserRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c, "认证令牌无效或已过期")
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			util.Unauthorized(c, "用户不存在，请重新登录")
			c.Abort()
			return
		}

		if user.IsBanned {
			c.JSON(http.StatusForbidden, gin.H{
				"success":   false,
				"message":   user.BanReason,
				"isBanned":  true,
				"banReason": user.BanReason,
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// ActivityMiddleware 记录用户最近活跃时间，异步写入不阻塞请求
func ActivityMiddleware(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := util.GetUserFromContext(c); user != nil {
			go userRepo.UpdateLastSeen(user.ID)
		}
		c.Next()
	}
}

// AdminMiddleware 管理端认证，只认携带 isAdmin 声明的令牌
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := util.ParseAdminJWT(tokenString, cfg.JWT.Secret)
		if err != nil || !claims.IsAdmin {
			util.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}

		c.Set("admin", claims.Username)
		c.Next()
	}
}
