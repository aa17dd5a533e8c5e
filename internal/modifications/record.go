package modifications

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
)

// ErrInvalidModification модификация дает бессмысленный срок, платеж или ставку,
// либо у нее нет обязательных для ее типа полей
var ErrInvalidModification = errors.New("invalid modification")

// ModificationType вид изменения договора
type ModificationType string

const (
	TypeTermExtension ModificationType = "term_extension"
	TypeTermReduction ModificationType = "term_reduction"
	TypePaymentChange ModificationType = "payment_change"
	TypeRateChange    ModificationType = "rate_change"
	TypeAssetChange   ModificationType = "asset_change"
	TypeTermination   ModificationType = "termination"
	TypeRenewal       ModificationType = "renewal"
	TypeOther         ModificationType = "other"
)

// Change данные, специфичные для вида модификации
type Change interface {
	Kind() ModificationType
}

// TermChange новый срок целиком или изменение на число месяцев
type TermChange struct {
	NewTermMonths    *int
	TermChangeMonths *int
}

// TermExtension продление срока
type TermExtension struct{ TermChange }

// TermReduction сокращение срока
type TermReduction struct{ TermChange }

// PaymentChange изменение платежа: новое значение, абсолютная дельта или процент
type PaymentChange struct {
	NewMonthlyPayment       *float64
	PaymentChangeAmount     *float64
	PaymentChangePercentage *float64
}

// RateChange изменение ставки дисконтирования
type RateChange struct {
	NewDiscountRateAnnual *float64
	RateChangeAmount      *float64
	RateChangePercentage  *float64
}

// AssetChange корректировка актива в форме права пользования
type AssetChange struct {
	AssetValueAdjustment *float64
}

// Termination досрочное прекращение договора
type Termination struct {
	TerminationDate calculations.Date
	TerminationFee  float64
}

// Renewal продление договора на новых или прежних условиях
type Renewal struct {
	RenewalTermMonths     int
	RenewalMonthlyPayment *float64
	RenewalDiscountRate   *float64
}

// OtherChange модификация без влияния на условия, только переоценка
type OtherChange struct{}

func (TermExtension) Kind() ModificationType { return TypeTermExtension }
func (TermReduction) Kind() ModificationType { return TypeTermReduction }
func (PaymentChange) Kind() ModificationType { return TypePaymentChange }
func (RateChange) Kind() ModificationType    { return TypeRateChange }
func (AssetChange) Kind() ModificationType   { return TypeAssetChange }
func (Termination) Kind() ModificationType   { return TypeTermination }
func (Renewal) Kind() ModificationType       { return TypeRenewal }
func (OtherChange) Kind() ModificationType   { return TypeOther }

// ModificationRecord неизменяемая запись о модификации договора
type ModificationRecord struct {
	ID                 string
	Description        string
	ModificationDate   calculations.Date
	EffectiveDate      calculations.Date
	Type               ModificationType
	ModificationFee    float64
	AdditionalCosts    float64
	IncentivesReceived float64
	Change             Change
}

// recordWire плоское JSON-представление записи, как его присылает хост
type recordWire struct {
	ID                      string             `json:"id,omitempty"`
	Description             string             `json:"description"`
	ModificationDate        calculations.Date  `json:"modificationDate"`
	EffectiveDate           calculations.Date  `json:"effectiveDate"`
	ModificationType        ModificationType   `json:"modificationType"`
	ModificationFee         float64            `json:"modificationFee"`
	AdditionalCosts         float64            `json:"additionalCosts"`
	IncentivesReceived      float64            `json:"incentivesReceived"`
	NewTermMonths           *int               `json:"newTermMonths,omitempty"`
	TermChangeMonths        *int               `json:"termChangeMonths,omitempty"`
	NewMonthlyPayment       *float64           `json:"newMonthlyPayment,omitempty"`
	PaymentChangeAmount     *float64           `json:"paymentChangeAmount,omitempty"`
	PaymentChangePercentage *float64           `json:"paymentChangePercentage,omitempty"`
	NewDiscountRateAnnual   *float64           `json:"newDiscountRateAnnual,omitempty"`
	RateChangeAmount        *float64           `json:"rateChangeAmount,omitempty"`
	RateChangePercentage    *float64           `json:"rateChangePercentage,omitempty"`
	AssetValueAdjustment    *float64           `json:"assetValueAdjustment,omitempty"`
	TerminationDate         *calculations.Date `json:"terminationDate,omitempty"`
	TerminationFee          *float64           `json:"terminationFee,omitempty"`
	RenewalTermMonths       *int               `json:"renewalTermMonths,omitempty"`
	RenewalMonthlyPayment   *float64           `json:"renewalMonthlyPayment,omitempty"`
	RenewalDiscountRate     *float64           `json:"renewalDiscountRate,omitempty"`
}

// MarshalJSON записывает запись в плоском виде
func (r ModificationRecord) MarshalJSON() ([]byte, error) {
	w := recordWire{
		ID:                 r.ID,
		Description:        r.Description,
		ModificationDate:   r.ModificationDate,
		EffectiveDate:      r.EffectiveDate,
		ModificationType:   r.Type,
		ModificationFee:    r.ModificationFee,
		AdditionalCosts:    r.AdditionalCosts,
		IncentivesReceived: r.IncentivesReceived,
	}

	switch c := r.Change.(type) {
	case TermExtension:
		w.NewTermMonths, w.TermChangeMonths = c.NewTermMonths, c.TermChangeMonths
	case TermReduction:
		w.NewTermMonths, w.TermChangeMonths = c.NewTermMonths, c.TermChangeMonths
	case PaymentChange:
		w.NewMonthlyPayment, w.PaymentChangeAmount, w.PaymentChangePercentage =
			c.NewMonthlyPayment, c.PaymentChangeAmount, c.PaymentChangePercentage
	case RateChange:
		w.NewDiscountRateAnnual, w.RateChangeAmount, w.RateChangePercentage =
			c.NewDiscountRateAnnual, c.RateChangeAmount, c.RateChangePercentage
	case AssetChange:
		w.AssetValueAdjustment = c.AssetValueAdjustment
	case Termination:
		date, fee := c.TerminationDate, c.TerminationFee
		if !date.IsZero() {
			w.TerminationDate = &date
		}
		w.TerminationFee = &fee
	case Renewal:
		months := c.RenewalTermMonths
		w.RenewalTermMonths = &months
		w.RenewalMonthlyPayment, w.RenewalDiscountRate = c.RenewalMonthlyPayment, c.RenewalDiscountRate
	}

	return json.Marshal(w)
}

// UnmarshalJSON собирает вариант Change по объявленному типу; поля других
// типов отбрасываются
func (r *ModificationRecord) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode modification: %w", err)
	}

	*r = ModificationRecord{
		ID:                 w.ID,
		Description:        w.Description,
		ModificationDate:   w.ModificationDate,
		EffectiveDate:      w.EffectiveDate,
		Type:               w.ModificationType,
		ModificationFee:    w.ModificationFee,
		AdditionalCosts:    w.AdditionalCosts,
		IncentivesReceived: w.IncentivesReceived,
	}

	term := TermChange{NewTermMonths: w.NewTermMonths, TermChangeMonths: w.TermChangeMonths}

	switch w.ModificationType {
	case TypeTermExtension:
		r.Change = TermExtension{term}
	case TypeTermReduction:
		r.Change = TermReduction{term}
	case TypePaymentChange:
		r.Change = PaymentChange{
			NewMonthlyPayment:       w.NewMonthlyPayment,
			PaymentChangeAmount:     w.PaymentChangeAmount,
			PaymentChangePercentage: w.PaymentChangePercentage,
		}
	case TypeRateChange:
		r.Change = RateChange{
			NewDiscountRateAnnual: w.NewDiscountRateAnnual,
			RateChangeAmount:      w.RateChangeAmount,
			RateChangePercentage:  w.RateChangePercentage,
		}
	case TypeAssetChange:
		r.Change = AssetChange{AssetValueAdjustment: w.AssetValueAdjustment}
	case TypeTermination:
		t := Termination{}
		if w.TerminationDate != nil {
			t.TerminationDate = *w.TerminationDate
		}
		if w.TerminationFee != nil {
			t.TerminationFee = *w.TerminationFee
		}
		r.Change = t
	case TypeRenewal:
		rn := Renewal{RenewalMonthlyPayment: w.RenewalMonthlyPayment, RenewalDiscountRate: w.RenewalDiscountRate}
		if w.RenewalTermMonths != nil {
			rn.RenewalTermMonths = *w.RenewalTermMonths
		}
		r.Change = rn
	case TypeOther:
		r.Change = OtherChange{}
	}

	return nil
}
