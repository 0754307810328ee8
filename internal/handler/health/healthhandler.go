// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package health

import (
	"net/http"

	"github.com/odiseo-io/email-service/internal/logic/health"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func HealthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := health.NewHealthLogic(r.Context(), svcCtx)
		resp, healthy := l.Health()
		if healthy {
			httpx.OkJsonCtx(r.Context(), w, resp)
		} else {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusServiceUnavailable, resp)
		}
	}
}
