package indicator

import (
	"math"

	"PolyRadar/internal/domain/models"
)

// Short periods keep the indicators reactive on one-minute candles.
const (
	DefaultRSIPeriod  = 7
	DefaultMACDFast   = 5
	DefaultMACDSlow   = 10
	DefaultMACDSignal = 4
	DefaultBBPeriod   = 14
	DefaultBBStd      = 2.0
	DefaultADXPeriod  = 7

	neutralRSI = 50.0
	neutralADX = 25.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EMA computes an exponential moving average over values, seeded with
// the first value.
func EMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = v*k + ema*(1-k)
	}
	return ema
}

func emaSeries(values []float64, period int) []float64 {
	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

func closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// RSI returns the relative strength index over the last period price
// changes. Returns 50 when there is not enough data.
func RSI(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return neutralRSI
	}
	changes := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		changes = append(changes, candles[i].Close-candles[i-1].Close)
	}
	changes = changes[len(changes)-period:]

	var avgGain, avgLoss float64
	for _, c := range changes {
		if c > 0 {
			avgGain += c
		} else {
			avgLoss -= c
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ATR averages the true range across all available candles.
func ATR(candles []models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	var sum float64
	n := 0
	for i := 1; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1].Close)
		n++
	}
	return sum / float64(n)
}

func trueRange(c models.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if hv := abs(c.High - prevClose); hv > tr {
		tr = hv
	}
	if lv := abs(c.Low - prevClose); lv > tr {
		tr = lv
	}
	return tr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ADX measures trend strength on a 0-100 scale using Wilder smoothing.
// Returns the neutral value 25 when there is not enough data.
func ADX(candles []models.Candle, period int) float64 {
	if len(candles) < period+2 {
		return neutralADX
	}

	n := len(candles) - 1
	plusDM := make([]float64, 0, n)
	minusDM := make([]float64, 0, n)
	trs := make([]float64, 0, n)

	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]

		pdm := cur.High - prev.High
		if pdm < 0 {
			pdm = 0
		}
		mdm := prev.Low - cur.Low
		if mdm < 0 {
			mdm = 0
		}
		// Directional movements are mutually exclusive.
		switch {
		case pdm > mdm:
			mdm = 0
		case mdm > pdm:
			pdm = 0
		default:
			pdm, mdm = 0, 0
		}

		plusDM = append(plusDM, pdm)
		minusDM = append(minusDM, mdm)
		trs = append(trs, trueRange(cur, prev.Close))
	}

	if len(trs) < period {
		return neutralADX
	}

	var atrS, plusS, minusS float64
	for i := 0; i < period; i++ {
		atrS += trs[i]
		plusS += plusDM[i]
		minusS += minusDM[i]
	}
	atrS /= float64(period)
	plusS /= float64(period)
	minusS /= float64(period)

	var dxs []float64
	for i := period; i < len(trs); i++ {
		atrS = (atrS*float64(period-1) + trs[i]) / float64(period)
		plusS = (plusS*float64(period-1) + plusDM[i]) / float64(period)
		minusS = (minusS*float64(period-1) + minusDM[i]) / float64(period)

		var plusDI, minusDI float64
		if atrS > 0 {
			plusDI = plusS / atrS * 100
			minusDI = minusS / atrS * 100
		}
		var dx float64
		if sum := plusDI + minusDI; sum > 0 {
			dx = abs(plusDI-minusDI) / sum * 100
		}
		dxs = append(dxs, dx)
	}
	if len(dxs) == 0 {
		return neutralADX
	}

	count := period
	if len(dxs) < count {
		count = len(dxs)
	}
	var sum float64
	for _, dx := range dxs[len(dxs)-count:] {
		sum += dx
	}
	return sum / float64(count)
}

// MACD returns the MACD line, signal line, histogram and the
// histogram delta between the last two evaluations.
func MACD(candles []models.Candle, fast, slow, signalPeriod int) (line, signal, hist, histDelta float64) {
	cs := closes(candles)
	if len(cs) < slow+signalPeriod {
		return 0, 0, 0, 0
	}

	fastEMA := emaSeries(cs, fast)
	slowEMA := emaSeries(cs, slow)

	macd := make([]float64, len(cs))
	for i := range cs {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signals := emaSeries(macd[slow-1:], signalPeriod)

	line = macd[len(macd)-1]
	signal = signals[len(signals)-1]
	hist = line - signal

	if len(signals) >= 2 {
		prevHist := macd[len(macd)-2] - signals[len(signals)-2]
		histDelta = hist - prevHist
	}
	return line, signal, hist, histDelta
}

// VWAP returns the volume weighted average price, the current price
// distance from it in percent and a normalized slope in [-1, 1].
func VWAP(candles []models.Candle) (vwap, priceVsVWAP, slope float64) {
	if len(candles) < 3 {
		return 0, 0, 0
	}

	var cumVol, cumTPVol float64
	values := make([]float64, 0, len(candles))
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		cumVol += c.Volume
		cumTPVol += typical * c.Volume
		if cumVol > 0 {
			values = append(values, cumTPVol/cumVol)
		} else {
			values = append(values, typical)
		}
	}

	vwap = values[len(values)-1]
	current := candles[len(candles)-1].Close
	if vwap > 0 {
		priceVsVWAP = (current - vwap) / vwap * 100
	}

	if len(values) >= 5 {
		recent := values[len(values)-5:]
		if recent[0] > 0 {
			raw := (recent[4] - recent[0]) / recent[0] * 100
			slope = clamp(raw*50, -1, 1)
		}
	}
	return vwap, priceVsVWAP, slope
}

// Bollinger returns the bands, bandwidth in percent, the price
// position within the bands clamped to [0, 1] and whether the bands
// are in a squeeze. A squeeze means the bandwidth dropped below half
// of the previous window's bandwidth.
func Bollinger(candles []models.Candle, period int, numStd float64) (upper, middle, lower, bandwidth, position float64, squeeze bool) {
	if len(candles) < period {
		var price float64
		if len(candles) > 0 {
			price = candles[len(candles)-1].Close
		}
		return price, price, price, 0, 0.5, false
	}

	middle, std := meanStd(closes(candles[len(candles)-period:]))
	upper = middle + numStd*std
	lower = middle - numStd*std
	if middle > 0 {
		bandwidth = (upper - lower) / middle * 100
	}

	current := candles[len(candles)-1].Close
	if bandRange := upper - lower; bandRange > 0 {
		position = clamp((current-lower)/bandRange, 0, 1)
	} else {
		position = 0.5
	}

	if len(candles) >= period*2 {
		prevMid, prevStd := meanStd(closes(candles[len(candles)-period*2 : len(candles)-period]))
		var prevBW float64
		if prevMid > 0 {
			prevBW = 2 * numStd * prevStd / prevMid * 100
		}
		if prevBW > 0 && bandwidth < prevBW*0.5 {
			squeeze = true
		}
	}
	return upper, middle, lower, bandwidth, position, squeeze
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
