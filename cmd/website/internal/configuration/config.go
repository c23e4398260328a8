package configuration

import (
	"strings"

	"github.com/adampresley/configinator"
)

type Config struct {
	AdminToken          string `flag:"admintoken" env:"ADMIN_TOKEN" default:"" description:"Bearer token required on admin API routes"`
	AwsEndpointUrl      string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"S3-compatible endpoint URL (Backblaze B2)"`
	AwsRegion           string `flag:"awsregion" env:"AWS_REGION" default:"us-west-004" description:"S3 region"`
	AwsAccessKeyId      string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"S3 access key ID"`
	AwsSecretAccessKey  string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"S3 secret access key"`
	AwsBucket           string `flag:"awsbucket" env:"AWS_BUCKET" default:"crocodeal-photographie" description:"S3 bucket for portfolio assets"`
	Categories          string `flag:"categories" env:"CATEGORIES" default:"portrait,mariage,immobilier,événementiel,voyage,animalier" description:"Comma-separated portfolio categories"`
	CdnBaseURL          string `flag:"cdn" env:"CDN_BASE_URL" default:"" description:"Public CDN base URL in front of the asset bucket"`
	ContentRoot         string `flag:"contentroot" env:"CONTENT_ROOT" default:"content/portfolio" description:"Root path of portfolio content in the content repo"`
	CoverCachePath      string `flag:"covercachepath" env:"COVER_CACHE_PATH" default:"covers-cache.json" description:"Path of the cover cache artifact"`
	DSN                 string `flag:"dsn" env:"DSN" default:"file:./data/crocodealphotographie.db" description:"Data source name"`
	EmailApiKey         string `flag:"emailapikey" env:"EMAIL_API_KEY" default:"" description:"API key for sending emails"`
	GithubBranch        string `flag:"ghbranch" env:"GITHUB_BRANCH" default:"main" description:"Content repo branch"`
	GithubRepo          string `flag:"ghrepo" env:"GITHUB_REPO" default:"" description:"Content repo in owner/repo format"`
	GithubToken         string `flag:"ghtoken" env:"GITHUB_TOKEN" default:"" description:"GitHub token for the content repo (server-side only)"`
	Host                string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	ImageRoot           string `flag:"imageroot" env:"IMAGE_ROOT" default:"static/img" description:"Root path of committed images in the content repo"`
	IndexPath           string `flag:"indexpath" env:"INDEX_PATH" default:"portfolio-index.json" description:"Path of the catalog index artifact"`
	LogLevel            string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxOptimizerWorkers int    `flag:"mow" env:"MAX_OPTIMIZER_WORKERS" default:"20" description:"Maximum number of concurrent thumbnail workers"`
	MaxScanWorkers      int    `flag:"msw" env:"MAX_SCAN_WORKERS" default:"10" description:"Maximum number of concurrent content fetches during a scan"`
	OperatorEmail       string `flag:"operatoremail" env:"OPERATOR_EMAIL" default:"" description:"Email address notified when a regeneration run fails"`
	OperatorName        string `flag:"operatorname" env:"OPERATOR_NAME" default:"Operator" description:"Display name for the notified operator"`
	ThumbnailFolder     string `flag:"thumbfolder" env:"THUMBNAIL_FOLDER" default:"thumbnails" description:"Bucket folder for generated cover thumbnails"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}

/*
CategoryList splits the configured category string. The category set is
configuration, never hard-coded in the pipeline.
*/
func (c Config) CategoryList() []string {
	categories := []string{}

	for _, category := range strings.Split(c.Categories, ",") {
		category = strings.TrimSpace(category)

		if category != "" {
			categories = append(categories, category)
		}
	}

	return categories
}

/*
GithubOwnerRepo splits the owner/repo setting.
*/
func (c Config) GithubOwnerRepo() (string, string) {
	parts := strings.SplitN(c.GithubRepo, "/", 2)

	if len(parts) != 2 {
		return "", ""
	}

	return parts[0], parts[1]
}
