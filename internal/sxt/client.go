// Package sxt 封装生学堂开放接口。所有调用都会产生一条 CallRecord 流水，
// 并在发出前经过进程内的最小间隔限流。不做任何重试，上游错误原样上抛。
package sxt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/pkg/monitoring"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Linux; Android 10) AppleWebKit/537.36"

// 响应体读取上限，拦截页和正常应答都远小于该值
const maxResponseBytes = 4 << 20

// Envelope 上游统一应答结构，data 不做结构化解析
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// DataIsTrue data 字段是否为字面量 true（绑定检查接口用）
func (e *Envelope) DataIsTrue() bool {
	return e != nil && bytes.Equal(bytes.TrimSpace(e.Data), []byte("true"))
}

// Session 门户接口需要的完整上游会话
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
}

type Client struct {
	http       *http.Client
	apiBase    string
	portalBase string

	// 登录与短信的最小间隔限流。仅进程内有效，属尽力而为，
	// 不构成对上游的正确性保证。
	loginLimiter *rate.Limiter
	smsLimiter   *rate.Limiter

	recorder Recorder
}

func NewClient(cfg config.SxtConfig, rec Recorder) *Client {
	return &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		apiBase:      cfg.APIBase,
		portalBase:   cfg.PortalBase,
		loginLimiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		smsLimiter:   rate.NewLimiter(rate.Every(cfg.SmsMinInterval), 1),
		recorder:     rec,
	}
}

// ---- passport 接口 ----

type loginRequest struct {
	App         string `json:"app"`
	Password    string `json:"password"`
	AccountType int    `json:"accountType"`
	Client      string `json:"client"`
	Account     string `json:"account"`
	Platform    string `json:"platform"`
}

// PasswordLogin 账号密码登录，password 须已做 AES 加密
func (c *Client) PasswordLogin(ctx context.Context, account, encryptedPassword string) (*Envelope, error) {
	body := loginRequest{
		App:         "SXT",
		Password:    encryptedPassword,
		AccountType: 0,
		Client:      "STUDENT",
		Account:     account,
		Platform:    "ANDROID",
	}
	return c.do(ctx, c.apiBase, http.MethodPost, "/passport/api/auth/login", nil, body, nil, c.loginLimiter)
}

// AuthCodeLogin 验证码登录，验证码同样走 AES 加密后作为 password 传递
func (c *Client) AuthCodeLogin(ctx context.Context, account, encryptedCode string) (*Envelope, error) {
	body := loginRequest{
		App:         "SXT",
		Password:    encryptedCode,
		AccountType: 8,
		Client:      "STUDENT",
		Account:     account,
		Platform:    "ANDROID",
	}
	return c.do(ctx, c.apiBase, http.MethodPost, "/passport/api/auth/login", nil, body, nil, c.loginLimiter)
}

// SendAuthCode 发送短信验证码。上游文档要求 POST 但参数放在 query string 里。
func (c *Client) SendAuthCode(ctx context.Context, phoneNumber string) (*Envelope, error) {
	q := url.Values{}
	q.Set("phoneNumber", phoneNumber)
	return c.do(ctx, c.apiBase, http.MethodPost, "/passport/api/sms/send_auth_code", q, map[string]interface{}{}, nil, c.smsLimiter)
}

// ValidAuthCode 校验短信验证码，参数同样放在 query string 里
func (c *Client) ValidAuthCode(ctx context.Context, phoneNumber, authCode string) (*Envelope, error) {
	q := url.Values{}
	q.Set("phoneNumber", phoneNumber)
	q.Set("authCode", authCode)
	return c.do(ctx, c.apiBase, http.MethodPost, "/passport/api/sms/valid_auth_code", q, map[string]interface{}{}, nil, nil)
}

// CheckStudentNeedJoinClass 检查账号是否还未绑定学生，data 为 true 表示需要绑定
func (c *Client) CheckStudentNeedJoinClass(ctx context.Context, token string) (*Envelope, error) {
	return c.do(ctx, c.apiBase, http.MethodGet, "/sxt/api/class_join/checkStudentNeedJoinClass", nil, nil, passportHeaders(token), nil)
}

func (c *Client) SearchSchools(ctx context.Context, token, schoolName string) (*Envelope, error) {
	q := url.Values{}
	q.Set("schoolName", schoolName)
	return c.do(ctx, c.apiBase, http.MethodGet, "/sxt/api/user_class/search_schools_by_name", q, nil, passportHeaders(token), nil)
}

func (c *Client) SearchClasses(ctx context.Context, token, schoolID string) (*Envelope, error) {
	q := url.Values{}
	q.Set("schoolId", schoolID)
	return c.do(ctx, c.apiBase, http.MethodGet, "/sxt/api/user_class/search_grade_level_class_by_id", q, nil, passportHeaders(token), nil)
}

// StudentJoinClass 学生绑定班级
func (c *Client) StudentJoinClass(ctx context.Context, token, studentName, studentIDCard, classID string) (*Envelope, error) {
	body := map[string]interface{}{
		"currentUserType": 1,
		"studentIdCard":   studentIDCard,
		"classId":         classID,
		"studentName":     studentName,
	}
	return c.do(ctx, c.apiBase, http.MethodPost, "/sxt/api/class_join/studentJoinClass", nil, body, passportHeaders(token), nil)
}

func (c *Client) GetUserInfo(ctx context.Context, token string) (*Envelope, error) {
	return c.do(ctx, c.apiBase, http.MethodGet, "/platform/api/user/get_user_info/1", nil, nil, passportHeaders(token), nil)
}

// Logout 解绑上游会话
func (c *Client) Logout(ctx context.Context, token string) (*Envelope, error) {
	return c.do(ctx, c.apiBase, http.MethodGet, "/passport/api/auth/unbind", nil, nil, passportHeaders(token), nil)
}

// ---- portal 网关接口 ----

func (c *Client) GetExamList(ctx context.Context, sess Session, page, size int) (*Envelope, error) {
	body := map[string]interface{}{
		"isLoading": true,
		"body": map[string]interface{}{
			"pageableDto": map[string]interface{}{
				"page": page,
				"size": size,
			},
			"isObjective":      false,
			"semesterId":       "",
			"studentAccountId": sess.UserID,
			"notNeedNceExam":   false,
		},
	}
	return c.do(ctx, c.portalBase, http.MethodPost, "/sxt-h5/api/gateway/exam/ExamQueryApi_pageForStudent", nil, body, portalHeaders(sess), nil)
}

func (c *Client) GetExamScore(ctx context.Context, sess Session, examID string) (*Envelope, error) {
	body := map[string]interface{}{
		"isLoading": true,
		"examId":    examID,
		"accountId": sess.UserID,
	}
	return c.do(ctx, c.portalBase, http.MethodPost, "/sxt-h5/api/gateway/analysis/AnalysisMobileStudentApi_findScoreList", nil, body, portalHeaders(sess), nil)
}

// GetStudentQuestion 小题得分
func (c *Client) GetStudentQuestion(ctx context.Context, sess Session, classID, examCourseID string, courseChooseTrend int) (*Envelope, error) {
	return c.analysis(ctx, sess, "AnalysisMobileStudentApi_findStudentQuestion", classID, examCourseID, courseChooseTrend)
}

// GetStudentPoint 知识点分析
func (c *Client) GetStudentPoint(ctx context.Context, sess Session, classID, examCourseID string, courseChooseTrend int) (*Envelope, error) {
	return c.analysis(ctx, sess, "AnalysisMobileStudentApi_findStudentPoint", classID, examCourseID, courseChooseTrend)
}

// GetStudentAbility 能力分析
func (c *Client) GetStudentAbility(ctx context.Context, sess Session, classID, examCourseID string, courseChooseTrend int) (*Envelope, error) {
	return c.analysis(ctx, sess, "AnalysisMobileStudentApi_findStudentAbility", classID, examCourseID, courseChooseTrend)
}

func (c *Client) analysis(ctx context.Context, sess Session, api, classID, examCourseID string, courseChooseTrend int) (*Envelope, error) {
	body := map[string]interface{}{
		"isLoading":         true,
		"classId":           classID,
		"studentId":         sess.UserID,
		"examCourseId":      examCourseID,
		"courseChooseTrend": courseChooseTrend,
	}
	return c.do(ctx, c.portalBase, http.MethodPost, "/sxt-h5/api/gateway/analysis/"+api, nil, body, portalHeaders(sess), nil)
}

// ---- 底层调用 ----

func passportHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
		"token":         token,
	}
}

func portalHeaders(sess Session) map[string]string {
	return map[string]string{
		"role-user-id": sess.UserID,
		"Cookie":       fmt.Sprintf("sxt_h5_token_prod=%s; sxt_h5_token_prod_refresh=%s", sess.Token, sess.RefreshToken),
	}
}

func (c *Client) do(ctx context.Context, base, method, path string, query url.Values, body interface{}, headers map[string]string, lim *rate.Limiter) (*Envelope, error) {
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reqBody []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = b
	}

	reqURL := path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, base+reqURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := CallRecord{
		ID:             uuid.NewString(),
		Method:         method,
		URL:            reqURL,
		BaseURL:        base,
		RequestHeaders: headers,
		RequestBody:    reqBody,
		Timestamp:      time.Now(),
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	rec.Duration = time.Since(start)

	if err != nil {
		rec.Error = err.Error()
		c.record(rec, path, "network_error")
		return nil, fmt.Errorf("请求生学堂失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	rec.Duration = time.Since(start)
	rec.ResponseStatus = resp.StatusCode
	rec.ResponseBody = respBody
	if readErr != nil {
		rec.Error = readErr.Error()
		c.record(rec, path, "network_error")
		return nil, fmt.Errorf("读取生学堂响应失败: %w", readErr)
	}

	// 安全网关可能以任意状态码返回 HTML 拦截页，先于状态码判断
	if looksLikeHTML(respBody) {
		blocked := &BlockedError{Status: resp.StatusCode}
		rec.Error = blocked.Error()
		c.record(rec, path, "blocked")
		return nil, blocked
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		uerr := &UpstreamError{Status: resp.StatusCode, Message: truncate(string(respBody), 200)}
		rec.Error = uerr.Error()
		c.record(rec, path, "bad_response")
		return nil, uerr
	}

	if resp.StatusCode >= 400 {
		uerr := &UpstreamError{Status: resp.StatusCode, Message: env.Message}
		rec.Error = uerr.Error()
		c.record(rec, path, "upstream_error")
		return nil, uerr
	}

	c.record(rec, path, "ok")
	return &env, nil
}

func (c *Client) record(rec CallRecord, endpoint, outcome string) {
	monitoring.UpstreamCounter.WithLabelValues(endpoint, outcome).Inc()
	monitoring.UpstreamDuration.WithLabelValues(endpoint).Observe(rec.Duration.Seconds())

	if c.recorder != nil {
		c.recorder.Record(rec)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
