package l0

import "fmt"

// Enum codes below follow the SAR Space Protocol Data Unit field tables.
// Each type keeps the downlinked integer as its value; codes outside the
// defined set are reported as reserved rather than rejected.

type ECCNumber uint8

const (
	ECCStripmap1         ECCNumber = 1
	ECCStripmap2         ECCNumber = 2
	ECCStripmap3         ECCNumber = 3
	ECCStripmap4         ECCNumber = 4
	ECCStripmap5N        ECCNumber = 5
	ECCStripmap6         ECCNumber = 6
	ECCInterferometricWS ECCNumber = 8
	ECCWaveMode          ECCNumber = 9
	ECCStripmap5S        ECCNumber = 10
	ECCRFCMode           ECCNumber = 15
	ECCTestMode          ECCNumber = 16
	ECCElevationNotchS3  ECCNumber = 17
	ECCExtraWideSwath    ECCNumber = 32
)

var eccLabels = map[ECCNumber]string{
	1:  "Stripmap 1",
	2:  "Stripmap 2",
	3:  "Stripmap 3",
	4:  "Stripmap 4",
	5:  "Stripmap 5-N",
	6:  "Stripmap 6",
	8:  "Interferometric Wide Swath",
	9:  "Wave Mode",
	10: "Stripmap 5-S",
	11: "Stripmap 1 w/o interl.Cal",
	12: "Stripmap 2 w/o interl.Cal",
	13: "Stripmap 3 w/o interl.Cal",
	14: "Stripmap 4 w/o interl.Cal",
	15: "RFC mode",
	16: "Test Mode Oper / Test Mode Bypass",
	17: "Elevation Notch S3",
	18: "Azimuth Notch S1",
	19: "Azimuth Notch S2",
	20: "Azimuth Notch S3",
	21: "Azimuth Notch S4",
	22: "Azimuth Notch S5-N",
	23: "Azimuth Notch S5-S",
	24: "Azimuth Notch S6",
	25: "Stripmap 5-N w/o interl.Cal",
	26: "Stripmap 5-S w/o interl.Cal",
	27: "Stripmap 6 w/o interl.Cal",
	31: "Elevation Notch S3 w/o interl.Cal",
	32: "Extra Wide Swath",
	33: "Azimuth Notch S1 w/o interl.Cal",
	34: "Azimuth Notch S3 w/o interl.Cal",
	35: "Azimuth Notch S6 w/o interl.Cal",
	37: "Noise Characterisation S1",
	38: "Noise Characterisation S2",
	39: "Noise Characterisation S3",
	40: "Noise Characterisation S4",
	41: "Noise Characterisation S5-N",
	42: "Noise Characterisation S5-S",
	43: "Noise Characterisation S6",
	44: "Noise Characterisation EWS",
	45: "Noise Characterisation IWS",
	46: "Noise Characterisation Wave",
}

func (e ECCNumber) String() string {
	if s, ok := eccLabels[e]; ok {
		return s
	}
	switch e {
	case 0, 7, 28, 29, 30, 36, 47:
		return fmt.Sprintf("contingency (%d)", uint8(e))
	}
	return fmt.Sprintf("reserved ECC %d", uint8(e))
}

func (e ECCNumber) IsReserved() bool {
	_, ok := eccLabels[e]
	if ok {
		return false
	}
	switch e {
	case 0, 7, 28, 29, 30, 36, 47:
		return false
	}
	return true
}

type TestMode uint8

const (
	TestModeDefault           TestMode = 0
	TestModeContingencyRxM    TestMode = 4
	TestModeContingencyBypass TestMode = 5
	TestModeOper              TestMode = 6
	TestModeBypass            TestMode = 7
)

func (t TestMode) String() string {
	switch t {
	case TestModeDefault:
		return "Default (no Test Mode)"
	case TestModeContingencyRxM:
		return "contingency (ground testing, RxM operational)"
	case TestModeContingencyBypass:
		return "contingency (ground testing, RxM bypassed)"
	case TestModeOper:
		return "Test Mode Oper"
	case TestModeBypass:
		return "Test Mode Bypass"
	}
	return fmt.Sprintf("reserved test mode %d", uint8(t))
}

func (t TestMode) IsReserved() bool {
	return t >= 1 && t <= 3
}

type RxChannelID uint8

const (
	RxChannelV RxChannelID = 0
	RxChannelH RxChannelID = 1
)

func (r RxChannelID) String() string {
	switch r {
	case RxChannelV:
		return "RxV-Pol Channel"
	case RxChannelH:
		return "RxH-Pol Channel"
	}
	return fmt.Sprintf("reserved rx channel %d", uint8(r))
}

func (r RxChannelID) IsReserved() bool { return r > 1 }

type BAQMode uint8

const (
	BAQBypass BAQMode = 0
	BAQ3Bit   BAQMode = 3
	BAQ4Bit   BAQMode = 4
	BAQ5Bit   BAQMode = 5
	FDBAQ0    BAQMode = 12
	FDBAQ1    BAQMode = 13
	FDBAQ2    BAQMode = 14
)

func (b BAQMode) String() string {
	switch b {
	case BAQBypass:
		return "BYPASS MODE"
	case BAQ3Bit:
		return "BAQ 3-BIT MODE"
	case BAQ4Bit:
		return "BAQ 4-BIT MODE"
	case BAQ5Bit:
		return "BAQ 5-BIT MODE"
	case FDBAQ0:
		return "FDBAQ MODE 0"
	case FDBAQ1:
		return "FDBAQ MODE 1"
	case FDBAQ2:
		return "FDBAQ MODE 2"
	}
	return fmt.Sprintf("reserved BAQ mode %d", uint8(b))
}

func (b BAQMode) IsFDBAQ() bool {
	return b == FDBAQ0 || b == FDBAQ1 || b == FDBAQ2
}

func (b BAQMode) IsReserved() bool {
	switch b {
	case BAQBypass, BAQ3Bit, BAQ4Bit, BAQ5Bit, FDBAQ0, FDBAQ1, FDBAQ2:
		return false
	}
	return true
}

type RangeDecimation uint8

// Decimation ratio numerator/denominator per RGDEC code. Sample rate after
// decimation is (L/M) * 4 * FRef. Code 2 is absent from the defined set.
var rgdecRatios = map[RangeDecimation][2]int{
	0:  {3, 4},
	1:  {2, 3},
	3:  {5, 9},
	4:  {4, 9},
	5:  {3, 8},
	6:  {1, 3},
	7:  {1, 6},
	8:  {3, 7},
	9:  {5, 16},
	10: {3, 26},
	11: {4, 11},
}

var rgdecFilterBandwidthHz = map[RangeDecimation]float64{
	0:  100e6,
	1:  87.71e6,
	3:  74.25e6,
	4:  59.44e6,
	5:  50.62e6,
	6:  44.89e6,
	7:  22.2e6,
	8:  56.59e6,
	9:  42.86e6,
	10: 15.1e6,
	11: 48.35e6,
}

var rgdecFilterLength = map[RangeDecimation]int{
	0:  28,
	1:  28,
	3:  32,
	4:  40,
	5:  48,
	6:  52,
	7:  92,
	8:  36,
	9:  68,
	10: 120,
	11: 44,
}

func (r RangeDecimation) String() string {
	if _, ok := rgdecRatios[r]; ok {
		return fmt.Sprintf("RGDEC %d", uint8(r))
	}
	return fmt.Sprintf("reserved RGDEC %d", uint8(r))
}

func (r RangeDecimation) IsReserved() bool {
	_, ok := rgdecRatios[r]
	return !ok
}

// SampleRateHz returns the post-decimation sample frequency, or 0 for a
// reserved code.
func (r RangeDecimation) SampleRateHz() float64 {
	ratio, ok := rgdecRatios[r]
	if !ok {
		return 0
	}
	return float64(ratio[0]) / float64(ratio[1]) * 4 * FRef
}

func (r RangeDecimation) FilterBandwidthHz() float64 {
	return rgdecFilterBandwidthHz[r]
}

func (r RangeDecimation) FilterLengthSamples() int {
	return rgdecFilterLength[r]
}

type Polarisation uint8

const (
	PolTxH     Polarisation = 0
	PolTxHRxH  Polarisation = 1
	PolTxHRxV  Polarisation = 2
	PolTxHRxVH Polarisation = 3
	PolTxV     Polarisation = 4
	PolTxVRxH  Polarisation = 5
	PolTxVRxV  Polarisation = 6
	PolTxVRxVH Polarisation = 7
)

var polLabels = [8]string{
	"Tx H Only", "Tx H, Rx H", "Tx H, Rx V", "Tx H, Rx V+H",
	"Tx V Only", "Tx V, Rx H", "Tx V, Rx V", "Tx V, Rx V+H",
}

func (p Polarisation) String() string {
	if int(p) < len(polLabels) {
		return polLabels[p]
	}
	return fmt.Sprintf("reserved polarisation %d", uint8(p))
}

type TemperatureCompensation uint8

const (
	TempCompNone   TemperatureCompensation = 0
	TempCompFEOnly TemperatureCompensation = 1
	TempCompTAOnly TemperatureCompensation = 2
	TempCompBoth   TemperatureCompensation = 3
)

var tempCompLabels = [4]string{
	"FE: OFF, TA: OFF", "FE: ON, TA: OFF", "FE: OFF, TA: ON", "FE: ON, TA: ON",
}

func (t TemperatureCompensation) String() string {
	if int(t) < len(tempCompLabels) {
		return tempCompLabels[t]
	}
	return fmt.Sprintf("reserved temperature compensation %d", uint8(t))
}

type SASTestMode uint8

const (
	SASTestActive  SASTestMode = 0
	SASCalibration SASTestMode = 1
)

func (s SASTestMode) String() string {
	switch s {
	case SASTestActive:
		return "SAS Test Mode active"
	case SASCalibration:
		return "Normal calibration mode"
	}
	return fmt.Sprintf("reserved SAS test mode %d", uint8(s))
}

type CalType uint8

const (
	CalTypeTx     CalType = 0
	CalTypeRx     CalType = 1
	CalTypeEPDN   CalType = 2
	CalTypeTA     CalType = 3
	CalTypeAPDN   CalType = 4
	CalTypeTxHIso CalType = 7
)

func (c CalType) String() string {
	switch c {
	case CalTypeTx:
		return "Tx Cal"
	case CalTypeRx:
		return "Rx Cal"
	case CalTypeEPDN:
		return "EPDN Cal"
	case CalTypeTA:
		return "Tx Cal Iso / TA Cal"
	case CalTypeAPDN:
		return "APDN Cal"
	case CalTypeTxHIso:
		return "TxH Cal Iso"
	}
	return fmt.Sprintf("reserved cal type %d", uint8(c))
}

func (c CalType) IsReserved() bool {
	switch c {
	case CalTypeTx, CalTypeRx, CalTypeEPDN, CalTypeTA, CalTypeAPDN, CalTypeTxHIso:
		return false
	}
	return true
}

type CalibrationMode uint8

const (
	CalModeInterleaved CalibrationMode = 0
	CalModePreamble    CalibrationMode = 1
	CalModePCC32       CalibrationMode = 2
	CalModeRF672       CalibrationMode = 3
)

var calModeLabels = [4]string{
	"Interleaved Internal Calibration (PCC2)",
	"Internal Calibration in Preamble/Postamble (PCC2)",
	"Phase Coded Characterisation (PCC32)",
	"Phase Coded Characterisation (RF672)",
}

func (c CalibrationMode) String() string {
	if int(c) < len(calModeLabels) {
		return calModeLabels[c]
	}
	return fmt.Sprintf("reserved calibration mode %d", uint8(c))
}

type SignalType uint8

const (
	SignalEcho   SignalType = 0
	SignalNoise  SignalType = 1
	SignalTxCal  SignalType = 8
	SignalRxCal  SignalType = 9
	SignalEPDN   SignalType = 10
	SignalTACal  SignalType = 11
	SignalAPDN   SignalType = 12
	SignalTxHIso SignalType = 15
)

func (s SignalType) String() string {
	switch s {
	case SignalEcho:
		return "Echo"
	case SignalNoise:
		return "Noise"
	case SignalTxCal:
		return "Tx Cal"
	case SignalRxCal:
		return "Rx Cal"
	case SignalEPDN:
		return "EPDN Cal"
	case SignalTACal:
		return "TA Cal / Tx Cal Iso"
	case SignalAPDN:
		return "APDN Cal"
	case SignalTxHIso:
		return "TxH Cal Iso"
	}
	return fmt.Sprintf("reserved signal type %d", uint8(s))
}

func (s SignalType) IsReserved() bool {
	switch s {
	case SignalEcho, SignalNoise, SignalTxCal, SignalRxCal, SignalEPDN, SignalTACal, SignalAPDN, SignalTxHIso:
		return false
	}
	return true
}

// IsCalibration reports whether the signal type is one of the calibration
// variants rather than an echo or noise measurement.
func (s SignalType) IsCalibration() bool {
	return s >= SignalTxCal && !s.IsReserved()
}
