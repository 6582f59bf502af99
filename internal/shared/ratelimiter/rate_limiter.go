package ratelimiter

import (
	"log"
	"sync"
	"time"
)

// 価格更新のデフォルト値（無料プランの上限に合わせる）
const (
	DefaultBatchSize = 5
	DefaultCooldown  = 60 * time.Second
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter は、limit 回の呼び出しを1バッチとし、バッチ間に cooldown だけ待機します。
// 最初のバッチの前には待機しません。
type RateLimiter struct {
	mu       sync.Mutex
	limit    int           // 1バッチあたりの上限
	cooldown time.Duration // バッチ間の待機時間
	count    int
	sleep    func(time.Duration)
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が 0 以下の場合は制限しません。
func NewRateLimiter(limit int, cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		cooldown: cooldown,
		sleep:    time.Sleep,
	}
}

// WaitIfNeeded は現在のバッチが上限に達していれば cooldown だけ待機し、新しいバッチを開始します。
func (rl *RateLimiter) WaitIfNeeded() {
	if rl.limit <= 0 {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.count++
	if rl.count > rl.limit {
		if rl.cooldown > 0 {
			log.Printf("[RATE LIMIT] hit %d calls, sleeping for %v...", rl.limit, rl.cooldown)
			rl.sleep(rl.cooldown)
		}
		// リセット
		rl.count = 1
	}
}
