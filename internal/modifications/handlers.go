package modifications

import (
	"fmt"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// State состояние договора после применения очередной модификации
type State struct {
	Terms           calculations.LeaseContractTerms
	ElapsedMonths   int
	AssetAdjustment float64
	Terminated      bool
}

// Handler правила одного вида модификации: проверка полезной нагрузки и переход
// состояния. Apply не меняет входное состояние, а возвращает новое.
type Handler interface {
	Validate(rec ModificationRecord) []string
	Apply(state State, rec ModificationRecord) (State, error)
}

var registry = map[ModificationType]Handler{
	TypeTermExtension: termHandler{sign: 1},
	TypeTermReduction: termHandler{sign: -1},
	TypePaymentChange: paymentHandler{},
	TypeRateChange:    rateHandler{},
	TypeAssetChange:   assetHandler{},
	TypeTermination:   terminationHandler{},
	TypeRenewal:       renewalHandler{},
	TypeOther:         otherHandler{},
}

// HandlerFor возвращает обработчик для вида модификации
func HandlerFor(t ModificationType) (Handler, bool) {
	h, ok := registry[t]
	return h, ok
}

func payload[T Change](rec ModificationRecord) (T, error) {
	c, ok := rec.Change.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s modification is missing its %s payload",
			ErrInvalidModification, rec.Type, zero.Kind())
	}
	return c, nil
}

func termChangeOf(rec ModificationRecord) (TermChange, error) {
	switch c := rec.Change.(type) {
	case TermExtension:
		return c.TermChange, nil
	case TermReduction:
		return c.TermChange, nil
	}
	return TermChange{}, fmt.Errorf("%w: %s modification is missing its term payload", ErrInvalidModification, rec.Type)
}

type termHandler struct {
	sign int
}

func (h termHandler) Validate(rec ModificationRecord) []string {
	c, err := termChangeOf(rec)
	if err != nil {
		return []string{"term change requires newTermMonths or termChangeMonths"}
	}
	var errs []string
	switch {
	case c.NewTermMonths == nil && c.TermChangeMonths == nil:
		errs = append(errs, "term change requires newTermMonths or termChangeMonths")
	case c.NewTermMonths != nil && *c.NewTermMonths <= 0:
		errs = append(errs, "newTermMonths must be positive")
	case c.NewTermMonths == nil && *c.TermChangeMonths == 0:
		errs = append(errs, "termChangeMonths must not be zero")
	}
	return errs
}

func (h termHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := termChangeOf(rec)
	if err != nil {
		return state, err
	}
	months, err := resolveTermMonths(state.Terms.LeaseTermMonths, c, h.sign)
	if err != nil {
		return state, err
	}
	state.Terms.LeaseEndDate = state.Terms.LeaseEndDate.AddMonths(months - state.Terms.LeaseTermMonths)
	state.Terms.LeaseTermMonths = months
	return state, nil
}

type paymentHandler struct{}

func (paymentHandler) Validate(rec ModificationRecord) []string {
	c, err := payload[PaymentChange](rec)
	if err != nil || (c.NewMonthlyPayment == nil && c.PaymentChangeAmount == nil && c.PaymentChangePercentage == nil) {
		return []string{"payment change requires newMonthlyPayment, paymentChangeAmount or paymentChangePercentage"}
	}
	var errs []string
	if c.NewMonthlyPayment != nil && (*c.NewMonthlyPayment < 0 || !utils.IsFinite(*c.NewMonthlyPayment)) {
		errs = append(errs, "newMonthlyPayment must be a non-negative number")
	}
	return errs
}

func (paymentHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := payload[PaymentChange](rec)
	if err != nil {
		return state, err
	}
	payment, err := resolvePayment(state.Terms.PaymentAmount, c)
	if err != nil {
		return state, err
	}
	state.Terms.PaymentAmount = payment
	return state, nil
}

type rateHandler struct{}

func (rateHandler) Validate(rec ModificationRecord) []string {
	c, err := payload[RateChange](rec)
	if err != nil || (c.NewDiscountRateAnnual == nil && c.RateChangeAmount == nil && c.RateChangePercentage == nil) {
		return []string{"rate change requires newDiscountRateAnnual, rateChangeAmount or rateChangePercentage"}
	}
	var errs []string
	if c.NewDiscountRateAnnual != nil && (*c.NewDiscountRateAnnual < 0 || !utils.IsFinite(*c.NewDiscountRateAnnual)) {
		errs = append(errs, "newDiscountRateAnnual must be a non-negative number")
	}
	return errs
}

func (rateHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := payload[RateChange](rec)
	if err != nil {
		return state, err
	}
	rate, err := resolveRate(state.Terms.DiscountRateAnnual, c)
	if err != nil {
		return state, err
	}
	state.Terms.DiscountRateAnnual = rate
	return state, nil
}

type assetHandler struct{}

func (assetHandler) Validate(rec ModificationRecord) []string {
	c, err := payload[AssetChange](rec)
	if err != nil || c.AssetValueAdjustment == nil {
		return []string{"asset change requires assetValueAdjustment"}
	}
	if !utils.IsFinite(*c.AssetValueAdjustment) {
		return []string{"assetValueAdjustment must be a finite number"}
	}
	return nil
}

func (assetHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := payload[AssetChange](rec)
	if err != nil {
		return state, err
	}
	if c.AssetValueAdjustment == nil {
		return state, fmt.Errorf("%w: assetValueAdjustment is required", ErrInvalidModification)
	}
	state.AssetAdjustment += *c.AssetValueAdjustment
	return state, nil
}

type terminationHandler struct{}

func (terminationHandler) Validate(rec ModificationRecord) []string {
	c, err := payload[Termination](rec)
	if err != nil {
		return []string{"termination requires terminationDate"}
	}
	var errs []string
	if c.TerminationDate.IsZero() {
		errs = append(errs, "termination requires terminationDate")
	} else if !rec.ModificationDate.IsZero() && c.TerminationDate.Before(rec.ModificationDate) {
		errs = append(errs, "terminationDate must not be before modificationDate")
	}
	if c.TerminationFee < 0 || !utils.IsFinite(c.TerminationFee) {
		errs = append(errs, "terminationFee must be a non-negative number")
	}
	return errs
}

func (terminationHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := payload[Termination](rec)
	if err != nil {
		return state, err
	}
	if c.TerminationDate.IsZero() {
		return state, fmt.Errorf("%w: terminationDate is required", ErrInvalidModification)
	}
	// расторжение возможно только в пределах действующего срока
	if c.TerminationDate.Before(state.Terms.LeaseStartDate) || state.Terms.LeaseEndDate.Before(c.TerminationDate) {
		return state, fmt.Errorf("%w: terminationDate %s is outside the lease term %s..%s",
			ErrInvalidModification, c.TerminationDate, state.Terms.LeaseStartDate, state.Terms.LeaseEndDate)
	}
	state.Terms.LeaseTermMonths = 0
	state.Terms.LeaseEndDate = c.TerminationDate
	state.AssetAdjustment = 0
	state.Terminated = true
	return state, nil
}

type renewalHandler struct{}

func (renewalHandler) Validate(rec ModificationRecord) []string {
	c, err := payload[Renewal](rec)
	if err != nil {
		return []string{"renewal requires renewalTermMonths"}
	}
	var errs []string
	if c.RenewalTermMonths <= 0 {
		errs = append(errs, "renewalTermMonths must be positive")
	}
	if c.RenewalMonthlyPayment != nil && (*c.RenewalMonthlyPayment < 0 || !utils.IsFinite(*c.RenewalMonthlyPayment)) {
		errs = append(errs, "renewalMonthlyPayment must be a non-negative number")
	}
	if c.RenewalDiscountRate != nil && (*c.RenewalDiscountRate < 0 || !utils.IsFinite(*c.RenewalDiscountRate)) {
		errs = append(errs, "renewalDiscountRate must be a non-negative number")
	}
	return errs
}

func (renewalHandler) Apply(state State, rec ModificationRecord) (State, error) {
	c, err := payload[Renewal](rec)
	if err != nil {
		return state, err
	}
	if c.RenewalTermMonths <= 0 {
		return state, fmt.Errorf("%w: renewalTermMonths must be positive, got %d", ErrInvalidModification, c.RenewalTermMonths)
	}
	state.Terms.LeaseTermMonths += c.RenewalTermMonths
	state.Terms.LeaseEndDate = state.Terms.LeaseEndDate.AddMonths(c.RenewalTermMonths)
	if c.RenewalMonthlyPayment != nil {
		if *c.RenewalMonthlyPayment < 0 {
			return state, fmt.Errorf("%w: renewal payment must be non-negative", ErrInvalidModification)
		}
		state.Terms.PaymentAmount = utils.Round2(*c.RenewalMonthlyPayment)
	}
	if c.RenewalDiscountRate != nil {
		if *c.RenewalDiscountRate < 0 {
			return state, fmt.Errorf("%w: renewal discount rate must be non-negative", ErrInvalidModification)
		}
		state.Terms.DiscountRateAnnual = *c.RenewalDiscountRate
	}
	return state, nil
}

type otherHandler struct{}

func (otherHandler) Validate(ModificationRecord) []string { return nil }

func (otherHandler) Apply(state State, _ ModificationRecord) (State, error) {
	return state, nil
}
