package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	companyhandler "company_sync/internal/feature/companies/transport/handler"
	platformhandler "company_sync/internal/platform/http/handler"
	jwtmw "company_sync/internal/platform/jwt"
)

// Deps はルータに登録するハンドラー群です。
type Deps struct {
	Status    *companyhandler.StatusHandler
	Ping      platformhandler.Pinger
	Metrics   http.Handler
	JWTSecret string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	health := platformhandler.Health(d.Ping)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)
	// 価格同期の状況
	r.GET("/sync-status", d.Status.SyncStatus)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// 管理者用ルート（role=service_role の JWT が必要）
	admin := r.Group("/admin")
	admin.Use(jwtmw.AdminRequired(d.JWTSecret))
	{
		admin.GET("/fields", d.Status.Fields)
	}

	return r
}
