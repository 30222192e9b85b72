package grouping

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soderasen-au/go-common/util"
)

// FormatNumber rounds v half away from zero to decimals digits, groups the
// integer part by three with thousandSep and joins the fraction with decimalSep.
// NaN and Inf yield "".
func FormatNumber(v float64, decimals int, decimalSep, thousandSep string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	numString := roundHalfUp(math.Abs(v), decimals)
	intPart, decPart, _ := strings.Cut(numString, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(numString, "0.") != "" {
		b.WriteByte('-')
	}
	head := len(intPart) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(intPart[:head])
	for i := head; i < len(intPart); i += 3 {
		b.WriteString(thousandSep)
		b.WriteString(intPart[i : i+3])
	}
	if decimals > 0 {
		b.WriteString(decimalSep)
		b.WriteString(decPart)
	}
	return b.String()
}

// roundHalfUp rounds the shortest decimal form of abs, so a value parsed
// back from its own rendering renders the same.
func roundHalfUp(abs float64, decimals int) string {
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(abs, 'f', -1, 64), ".")
	if len(frac) <= decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else {
		up := frac[decimals] >= '5'
		frac = frac[:decimals]
		if up {
			digits := []byte(intPart + frac)
			i := len(digits) - 1
			for ; i >= 0 && digits[i] == '9'; i-- {
				digits[i] = '0'
			}
			if i < 0 {
				digits = append([]byte{'1'}, digits...)
			} else {
				digits[i]++
			}
			intPart, frac = string(digits[:len(digits)-decimals]), string(digits[len(digits)-decimals:])
		}
	}
	if decimals == 0 {
		return intPart
	}
	return intPart + "." + frac
}

// ParseNumFormat reads an Excel style pattern such as `#,##0.00` or
// `#.##0,00`: the text between `#` and `##0` is the thousand separator, the
// first character after `##0` the decimal point, the rest the decimals.
func ParseNumFormat(fmtStr string) (int, string, string, *util.Result) {
	if len(fmtStr) == 0 || fmtStr[0] != '#' {
		return 0, "", "", util.MsgError("fmtStr", "not leading with '#'")
	}
	intPos := strings.Index(fmtStr, "##0")
	if intPos < 0 {
		return 0, "", "", util.MsgError("fmtStr", "no integer descriptor")
	}
	thousandSep := fmtStr[1:intPos]

	decimalPoint := DEFAULT_DECIMAL_SEPARATOR
	decPart := fmtStr[intPos+3:]
	fractionPrecision := 0
	if len(decPart) > 0 {
		decimalPoint = decPart[0:1]
		fractionPrecision = len(decPart) - 1
	}
	return fractionPrecision, decimalPoint, thousandSep, nil
}

func FormatNum(num float64, fmtStr string) (string, *util.Result) {
	decimals, decimalPoint, thousandSep, res := ParseNumFormat(fmtStr)
	if res != nil {
		return "", res
	}
	return FormatNumber(num, decimals, decimalPoint, thousandSep), nil
}

// ParseExcelDateTime converts an Excel serial date to UTC time.
func ParseExcelDateTime(serialNumber float64) time.Time {
	excelEpoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return excelEpoch.Add(time.Duration(serialNumber * float64(24*time.Hour)))
}

// GetDateFormat translates a `YYYY-MM-DD hh:mm:ss` style pattern into a Go layout.
func GetDateFormat(dateFmt string) string {
	goFmt := dateFmt
	for _, r := range [][2]string{
		{"YYYY", "2006"}, {"YY", "06"},
		{"MMMM", "January"}, {"MMM", "Jan"}, {"MM", "01"}, {"M", "1"},
		{"WWWW", "Monday"}, {"WWW", "Mon"}, {"W", "Mon"},
		{"DD", "02"}, {"D", "2"},
	} {
		goFmt = strings.ReplaceAll(goFmt, r[0], r[1])
	}

	if strings.Contains(goFmt, "tt") {
		goFmt = strings.ReplaceAll(goFmt, "hh", "03")
		goFmt = strings.ReplaceAll(goFmt, "tt", "PM")
	} else {
		goFmt = strings.ReplaceAll(goFmt, "hh", "15")
	}
	goFmt = strings.ReplaceAll(goFmt, "mm", "04")
	goFmt = strings.ReplaceAll(goFmt, "ss", "05")
	goFmt = strings.ReplaceAll(goFmt, "f", "0")
	return goFmt
}

func FormatDate(num float64, dateFmt string) string {
	return ParseExcelDateTime(num).Format(GetDateFormat(dateFmt))
}
