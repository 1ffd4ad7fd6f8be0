// Package domain 提供回测引擎的核心模型：K 线、成本模型、交易模拟与结果统计。
package domain

import (
	"strings"
	"time"
)

// Bar 表示一根日线 K 线，按日期升序排列，生成后不可变
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	// Amount 成交额
	Amount float64 `json:"amount"`
}

// 涨跌停判定阈值。主板 10% 涨跌幅限制，考虑精度取 9.8%；
// 注册制板块（创业板 300/301、科创板 688/689）为 20%，取 19.8%。
const (
	mainBoardLimitThreshold    = 0.098
	registrationLimitThreshold = 0.198
)

// limitThreshold 根据代码前缀返回该标的的涨跌停判定阈值
func limitThreshold(symbol string) float64 {
	code := symbol
	if idx := strings.IndexAny(code, "0123456789"); idx > 0 {
		code = code[idx:]
	}
	for _, prefix := range []string{"300", "301", "688", "689"} {
		if strings.HasPrefix(code, prefix) {
			return registrationLimitThreshold
		}
	}
	return mainBoardLimitThreshold
}

// IsLimitUp 判定价格相对前收盘是否封死涨停
func IsLimitUp(symbol string, price, prevClose float64) bool {
	if prevClose <= 0 {
		return false
	}
	return (price-prevClose)/prevClose >= limitThreshold(symbol)
}

// IsLimitDown 判定价格相对前收盘是否封死跌停
func IsLimitDown(symbol string, price, prevClose float64) bool {
	if prevClose <= 0 {
		return false
	}
	return (prevClose-price)/prevClose >= limitThreshold(symbol)
}
