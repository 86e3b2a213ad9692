package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// EMA seeds with the first value and smooths over the whole series.
func EMA(closes []float64, n int) float64 {
	if len(closes) == 0 || n <= 0 {
		return math.NaN()
	}
	k := 2.0 / float64(n+1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = c*k + ema*(1-k)
	}
	return ema
}

// MACD returns line, signal, and histogram for the standard 12/26/9 setup
// (or whatever fast/slow/signal windows are supplied).
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist float64) {
	if len(closes) < slow || fast <= 0 || slow <= fast || signal <= 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	kFast := 2.0 / float64(fast+1)
	kSlow := 2.0 / float64(slow+1)
	kSig := 2.0 / float64(signal+1)
	emaFast, emaSlow := closes[0], closes[0]
	sig = 0.0
	for i, c := range closes {
		if i > 0 {
			emaFast = c*kFast + emaFast*(1-kFast)
			emaSlow = c*kSlow + emaSlow*(1-kSlow)
		}
		m := emaFast - emaSlow
		if i == 0 {
			sig = m
		} else {
			sig = m*kSig + sig*(1-kSig)
		}
		line = m
	}
	return line, sig, line - sig
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = mid + k*sd
	low = mid - k*sd
	return
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := highs[i] - lows[i]
		if d := math.Abs(highs[i] - closes[i-1]); d > tr {
			tr = d
		}
		if d := math.Abs(lows[i] - closes[i-1]); d > tr {
			tr = d
		}
		sum += tr
	}
	return sum / float64(period)
}

// VolumeRatio compares the latest bar's volume to the average of the
// preceding n bars. Above 1 means expansion.
func VolumeRatio(vols []float64, n int) float64 {
	if len(vols) < n+1 || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vols) - n - 1; i < len(vols)-1; i++ {
		sum += vols[i]
	}
	avg := sum / float64(n)
	if avg == 0 {
		return math.NaN()
	}
	return vols[len(vols)-1] / avg
}
