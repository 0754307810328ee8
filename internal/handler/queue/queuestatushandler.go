// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package queue

import (
	"net/http"

	"github.com/odiseo-io/email-service/internal/logic/queue"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func QueueStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := queue.NewQueueStatusLogic(r.Context(), svcCtx)
		resp, err := l.QueueStatus()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
