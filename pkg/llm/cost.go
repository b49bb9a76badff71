package llm

import "strings"

// Token pricing per 1M tokens (USD).
var pricing = map[string]modelPrice{
	"gpt-4o":        {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
	"gpt-4.1":       {Input: 2.00, Output: 8.00},
	"gpt-4.1-mini":  {Input: 0.40, Output: 1.60},
	"gpt-4.1-nano":  {Input: 0.10, Output: 0.40},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
}

type modelPrice struct {
	Input  float64
	Output float64
}

// EstimateCost returns the estimated cost in USD for the given model and
// token counts. Dated snapshots such as "gpt-4o-mini-2024-07-18" are priced
// as their base model; unknown models cost 0.
func EstimateCost(model string, tokensIn, tokensOut int) float64 {
	p, ok := pricing[model]
	if !ok {
		best := ""
		for name, price := range pricing {
			if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
				best, p, ok = name, price, true
			}
		}
	}
	if !ok {
		return 0
	}
	return (float64(tokensIn)*p.Input + float64(tokensOut)*p.Output) / 1_000_000
}
