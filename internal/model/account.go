package model

// Account is a trading account that imported trades are attributed to.
type Account struct {
	ID       string `yaml:"id" mapstructure:"id"`
	Name     string `yaml:"name" mapstructure:"name"`
	Broker   string `yaml:"broker,omitempty" mapstructure:"broker"`
	Currency string `yaml:"currency" mapstructure:"currency"` // ISO 4217, e.g. "USD"
}
