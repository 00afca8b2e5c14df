package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 学校、班级搜索结果变动极少，Redis 可用时缓存十分钟
const searchCacheTTL = 10 * time.Minute

type UserService struct {
	UserRepo         *repository.UserRepository
	AnnouncementRepo *repository.AnnouncementRepository
	Client           *sxt.Client
	Redis            *redis.Client
}

func NewUserService(userRepo *repository.UserRepository, annRepo *repository.AnnouncementRepository, client *sxt.Client, rdb *redis.Client) *UserService {
	return &UserService{UserRepo: userRepo, AnnouncementRepo: annRepo, Client: client, Redis: rdb}
}

// flexID 上游的 id 字段有时是数字有时是字符串
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type upstreamUserInfo struct {
	UserSimpleDTO struct {
		ID          flexID `json:"id"`
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
		IDNumber    string `json:"idnumber"`
	} `json:"userSimpleDTO"`
	ClassComplexDTO struct {
		ClassSimpleDTO struct {
			ID   flexID `json:"id"`
			Name string `json:"name"`
		} `json:"classSimpleDTO"`
	} `json:"classComplexDTO"`
	AreaDTO struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	} `json:"areaDTO"`
}

// Info 向上游拉取最新用户信息并折叠进本地档案；
// 上游不可用时回退到最近一次保存的副本。
func (s *UserService) Info(ctx context.Context, user *model.User) (json.RawMessage, error) {
	if user.Token == "" {
		return nil, util.ErrIncompleteSession
	}

	env, err := s.Client.GetUserInfo(ctx, user.Token)
	if err != nil || !env.Success {
		if len(user.UserInfo) > 0 {
			logger.Log.Warn("上游用户信息不可用，回退本地副本",
				zap.String("account", user.Account), zap.Error(err))
			return json.RawMessage(user.UserInfo), nil
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("获取用户信息失败: %s", env.Message)
	}

	var info upstreamUserInfo
	if err := json.Unmarshal(env.Data, &info); err == nil {
		if info.UserSimpleDTO.ID != "" {
			user.SxtUserID = string(info.UserSimpleDTO.ID)
		}
		if info.UserSimpleDTO.Name != "" {
			user.Name = info.UserSimpleDTO.Name
		}
		if info.UserSimpleDTO.PhoneNumber != "" {
			user.PhoneNumber = info.UserSimpleDTO.PhoneNumber
		}
		if info.UserSimpleDTO.IDNumber != "" {
			user.IDCard = info.UserSimpleDTO.IDNumber
		}
		if info.ClassComplexDTO.ClassSimpleDTO.ID != "" {
			user.ClassID = string(info.ClassComplexDTO.ClassSimpleDTO.ID)
			user.ClassName = info.ClassComplexDTO.ClassSimpleDTO.Name
		}
		if info.AreaDTO.ID != "" {
			user.SchoolID = string(info.AreaDTO.ID)
			user.SchoolName = info.AreaDTO.Name
		}
	}
	user.UserInfo = model.JSON(env.Data)

	if err := s.UserRepo.Save(user); err != nil {
		return nil, err
	}
	return json.RawMessage(env.Data), nil
}

// SearchSchools 按名称搜索学校，结果写入 Redis
func (s *UserService) SearchSchools(ctx context.Context, user *model.User, schoolName string) (json.RawMessage, error) {
	key := "sxt:search:schools:" + schoolName
	if data, ok := s.cacheGet(ctx, key); ok {
		return data, nil
	}

	env, err := s.Client.SearchSchools(ctx, user.Token, schoolName)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("搜索学校失败: %s", env.Message)
	}

	s.cacheSet(ctx, key, env.Data)
	return json.RawMessage(env.Data), nil
}

// SearchClasses 按学校查询年级班级列表
func (s *UserService) SearchClasses(ctx context.Context, user *model.User, schoolID string) (json.RawMessage, error) {
	key := "sxt:search:classes:" + schoolID
	if data, ok := s.cacheGet(ctx, key); ok {
		return data, nil
	}

	env, err := s.Client.SearchClasses(ctx, user.Token, schoolID)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("查询班级失败: %s", env.Message)
	}

	s.cacheSet(ctx, key, env.Data)
	return json.RawMessage(env.Data), nil
}

func (s *UserService) cacheGet(ctx context.Context, key string) (json.RawMessage, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

func (s *UserService) cacheSet(ctx context.Context, key string, data []byte) {
	if s.Redis == nil || len(data) == 0 {
		return
	}
	if err := s.Redis.Set(ctx, key, data, searchCacheTTL).Err(); err != nil {
		logger.Log.Warn("搜索结果写缓存失败", zap.String("key", key), zap.Error(err))
	}
}

// BindRequest 学生绑定班级参数
type BindRequest struct {
	Token         string `json:"token"`
	StudentName   string `json:"studentName" binding:"required"`
	StudentIDCard string `json:"studentIdCard" binding:"required"`
	ClassID       string `json:"classId" binding:"required"`
}

type bindResult struct {
	StudentID   flexID `json:"studentId"`
	StudentName string `json:"studentName"`
	ClassID     flexID `json:"classId"`
	ClassName   string `json:"className"`
	SchoolID    flexID `json:"schoolId"`
	SchoolName  string `json:"schoolName"`
}

// Bind 学生绑定班级。已登录用户绑定成功后同步更新本地档案。
func (s *UserService) Bind(ctx context.Context, user *model.User, req BindRequest) (*sxt.Envelope, error) {
	token := req.Token
	if token == "" && user != nil {
		token = user.Token
	}
	if token == "" {
		return nil, util.ErrIncompleteSession
	}

	env, err := s.Client.StudentJoinClass(ctx, token, req.StudentName, req.StudentIDCard, req.ClassID)
	if err != nil {
		return nil, err
	}

	if env.Success && user != nil {
		var res bindResult
		if err := json.Unmarshal(env.Data, &res); err == nil {
			if res.StudentID != "" {
				user.SxtUserID = string(res.StudentID)
			}
			if res.StudentName != "" {
				user.Name = res.StudentName
			}
			if res.ClassID != "" {
				user.ClassID = string(res.ClassID)
				user.ClassName = res.ClassName
			}
			if res.SchoolID != "" {
				user.SchoolID = string(res.SchoolID)
				user.SchoolName = res.SchoolName
			}
			user.IDCard = req.StudentIDCard
			if err := s.UserRepo.Save(user); err != nil {
				return nil, err
			}
		}
	}
	return env, nil
}

// Announcement 读取公示内容。copyright 未配置时返回缺省文案。
func (s *UserService) Announcement(announcementType string) (*model.Announcement, error) {
	if !model.ValidAnnouncementType(announcementType) {
		return nil, util.ErrInvalidAnnouncementType
	}
	ann, err := s.AnnouncementRepo.FindByType(announcementType)
	if err != nil {
		return nil, err
	}
	if ann == nil {
		if announcementType == model.AnnouncementCopyright {
			return &model.Announcement{Type: announcementType, Content: model.DefaultCopyright}, nil
		}
		return &model.Announcement{Type: announcementType}, nil
	}
	return ann, nil
}

// UserCount 注册用户总数，落地页展示用
func (s *UserService) UserCount() (int64, error) {
	return s.UserRepo.Count()
}
