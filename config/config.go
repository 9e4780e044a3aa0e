package config

// Config is populated from the environment via env.Parse. A .env file, when
// present, is loaded into the environment first (see main.go).
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	HTTP  HTTPServer
	Mongo Mongo `envPrefix:"MONGO_"`

	JWTSecret string `env:"JWT_SECRET"`

	// Base URL of the storefront, used to build absolute image URLs and the
	// checkout redirect targets.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Postmark Postmark `envPrefix:"POSTMARK_"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8000"`
}

type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"ecommerce"`
}

type Stripe struct {
	SecretKey  string `env:"SECRET_KEY"`
	BaseAPIURL string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
}

type Postmark struct {
	APIToken string `env:"API_TOKEN"`
	Sender   string `env:"SENDER"`
}
