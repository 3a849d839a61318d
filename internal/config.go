package internal

import "time"

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	CommandBufferSize int           `env:"COMMAND_BUFFER_SIZE,required=true"`
	SinkBufferSize    int           `env:"SINK_BUFFER_SIZE,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	PulseInterval     time.Duration `env:"PULSE_INTERVAL,required=true"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	CompletionEndpoint string        `env:"COMPLETION_ENDPOINT,required=true"`
	CompletionAPIKey   string        `env:"COMPLETION_API_KEY,required=true"`
	CompletionModel    string        `env:"COMPLETION_MODEL,required=true"`
	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT,required=true"`
	ImagesEndpoint     string        `env:"IMAGES_ENDPOINT,required=true"`
	ImageModel         string        `env:"IMAGE_MODEL,required=true"`

	DebugPort   int  `env:"DEBUG_PORT"`
	EnableDebug bool `env:"ENABLE_DEBUG"`
}
