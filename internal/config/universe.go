package config

// DefaultUniverse is the built-in swing trading watchlist.
func DefaultUniverse() []string {
	return []string{
		// US equities (NASDAQ & NYSE)
		"NVDA", "AMD", "TSLA", "AAPL", "MSFT", "META", "AMZN", "GOOGL", "INTC", "QCOM", "JPM", "BAC", "PFE", "JNJ", "DIS", "NKE",

		// European equities (Euronext, Xetra)
		"MC.PA", "TTE.PA", "AIR.PA", "OR.PA", "BNP.PA", "SAP.DE", "VOW3.DE", "SIE.DE", "MBG.DE", "BAYN.DE", "ASML.AS", "INGA.AS", "SHELL.AS",

		// Index ETFs and indices
		"SPY", "QQQ", "IWM", "EWW", "EWZ", "^GDAXI", "^FCHI",

		// Commodity futures
		"GC=F", "SI=F", "CL=F", "NG=F", "HG=F",

		// Crypto
		"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD", "AVAX-USD", "LINK-USD",
	}
}
