package dto

// GlobalQuoteResponse は GLOBAL_QUOTE エンドポイントのレスポンスです。
// レート制限時は Note（または Information）、エラー時は ErrorMessage のみが設定されます。
type GlobalQuoteResponse struct {
	Quote        GlobalQuote `json:"Global Quote"`
	Note         string      `json:"Note"`
	Information  string      `json:"Information"`
	ErrorMessage string      `json:"Error Message"`
}

// GlobalQuote は1銘柄の相場です。数値はすべて文字列で返されます。
type GlobalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestDay     string `json:"07. latest trading day"`
	PreviousClose string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

// IsEmpty は相場が含まれていないかどうかを返します。
func (q GlobalQuote) IsEmpty() bool {
	return q.Symbol == "" && q.Price == ""
}
