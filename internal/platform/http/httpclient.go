package http

import (
	"net"
	"net/http"
	"time"
)

// UserAgent は外部APIへのリクエストに付与する User-Agent です。
const UserAgent = "company-sync/1.0"

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConns: 最大アイドル接続数
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//   - User-Agent: 未設定のリクエストに UserAgent を付与
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
//   - スプレッドシートのダウンロードは共有リンクのリダイレクトを辿るため、CheckRedirect は既定のまま
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{base: t}}
}

// userAgentTransport は User-Agent ヘッダーが無いリクエストに既定値を設定します。
type userAgentTransport struct {
	base http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.base.RoundTrip(req)
	}
	// RoundTripper はリクエストを変更してはならないため複製する
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return u.base.RoundTrip(clone)
}
