package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/break-social/pkg/response"
)

// ViewerKey gin 上下文中当前用户 id 的键
const ViewerKey = "viewer_id"

var errNoToken = errors.New("missing bearer token")

// TokenParser 校验身份服务签发的 HS256 token，subject 即用户 id。
type TokenParser struct {
	secret []byte
	issuer string
}

func NewTokenParser(secret, issuer string) *TokenParser {
	return &TokenParser{secret: []byte(secret), issuer: issuer}
}

func (p *TokenParser) Parse(raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Sign 生成测试与 CLI 用的 token
func (p *TokenParser) Sign(userID string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID, Issuer: p.issuer})
	return tok.SignedString(p.secret)
}

func bearer(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", errNoToken
	}
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return "", errNoToken
	}
	return tok, nil
}

// Auth 要求有效 token
func Auth(p *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearer(c)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		id, err := p.Parse(raw)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(ViewerKey, id)
		c.Next()
	}
}

// OptionalAuth 有 token 则解析，无 token 匿名访问；token 无效仍然拒绝。
func OptionalAuth(p *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearer(c)
		if err != nil {
			c.Next()
			return
		}
		id, err := p.Parse(raw)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(ViewerKey, id)
		c.Next()
	}
}

// ViewerID 返回当前用户 id，匿名时为空。
func ViewerID(c *gin.Context) string {
	return c.GetString(ViewerKey)
}
