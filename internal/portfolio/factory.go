package portfolio

import (
	"strings"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// ProductSpec is a raw product specification, discriminated by its
// "product_type" field.
type ProductSpec map[string]interface{}

// ProductFromSpec builds a Product from an untyped specification.
// Unknown product types and missing required fields fail with a
// descriptive error; nothing is ever silently defaulted.
func ProductFromSpec(spec ProductSpec) (Product, error) {
	rawType, ok := spec["product_type"]
	if !ok {
		return nil, errors.InvalidArgument("product spec missing 'product_type' field")
	}
	productType, ok := rawType.(string)
	if !ok {
		return nil, errors.InvalidArgumentf("product_type must be a string, got %T", rawType)
	}

	switch strings.ToLower(productType) {
	case "stock":
		return stockFromSpec(spec)
	case "equity_option":
		return optionFromSpec(spec)
	case "bond":
		return bondFromSpec(spec)
	default:
		return nil, errors.InvalidArgumentf("unsupported product type %q", productType)
	}
}

func stockFromSpec(spec ProductSpec) (Product, error) {
	if err := requireFields(spec, "stock", "product_id", "ticker", "quantity"); err != nil {
		return nil, err
	}

	productID, err := stringField(spec, "product_id")
	if err != nil {
		return nil, err
	}
	ticker, err := stringField(spec, "ticker")
	if err != nil {
		return nil, err
	}
	quantity, err := floatField(spec, "quantity")
	if err != nil {
		return nil, err
	}

	return NewStock(productID, ticker, quantity)
}

func optionFromSpec(spec ProductSpec) (Product, error) {
	if err := requireFields(spec, "equity_option",
		"product_id", "underlying_ticker", "strike", "maturity", "option_type", "quantity"); err != nil {
		return nil, err
	}

	productID, err := stringField(spec, "product_id")
	if err != nil {
		return nil, err
	}
	underlying, err := stringField(spec, "underlying_ticker")
	if err != nil {
		return nil, err
	}
	strike, err := floatField(spec, "strike")
	if err != nil {
		return nil, err
	}
	maturity, err := floatField(spec, "maturity")
	if err != nil {
		return nil, err
	}
	optType, err := stringField(spec, "option_type")
	if err != nil {
		return nil, err
	}
	quantity, err := floatField(spec, "quantity")
	if err != nil {
		return nil, err
	}

	if model, ok := spec["pricing_model"]; ok {
		if model != "black_scholes" {
			return nil, errors.InvalidArgumentf("unsupported pricing model %v for option %q", model, productID)
		}
	}

	return NewOption(productID, underlying, strike, maturity, OptionType(strings.ToLower(optType)), quantity, NewBlackScholes())
}

func bondFromSpec(spec ProductSpec) (Product, error) {
	if err := requireFields(spec, "bond", "product_id", "issuer", "notional", "coupon", "maturity"); err != nil {
		return nil, err
	}

	productID, err := stringField(spec, "product_id")
	if err != nil {
		return nil, err
	}
	issuer, err := stringField(spec, "issuer")
	if err != nil {
		return nil, err
	}
	notional, err := floatField(spec, "notional")
	if err != nil {
		return nil, err
	}
	coupon, err := floatField(spec, "coupon")
	if err != nil {
		return nil, err
	}
	maturity, err := floatField(spec, "maturity")
	if err != nil {
		return nil, err
	}

	frequency := 2
	if _, ok := spec["frequency"]; ok {
		f, err := floatField(spec, "frequency")
		if err != nil {
			return nil, err
		}
		frequency = int(f)
	}

	return NewBond(productID, issuer, notional, coupon, maturity, frequency)
}

func requireFields(spec ProductSpec, productType string, fields ...string) error {
	var missing []string
	for _, field := range fields {
		if _, ok := spec[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return errors.InvalidArgumentf("missing fields for %s product: %s", productType, strings.Join(missing, ", "))
	}
	return nil
}

func stringField(spec ProductSpec, field string) (string, error) {
	v, ok := spec[field].(string)
	if !ok {
		return "", errors.InvalidArgumentf("field %q must be a string, got %T", field, spec[field])
	}
	return v, nil
}

func floatField(spec ProductSpec, field string) (float64, error) {
	switch v := spec[field].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.InvalidArgumentf("field %q must be numeric, got %T", field, spec[field])
	}
}
