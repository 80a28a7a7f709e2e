package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cmdUtil "github.com/toolbridge/toolbridge/cmd/util"

	"github.com/toolbridge/toolbridge/bridge/calls"
	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/server"
	"github.com/toolbridge/toolbridge/bridge/tools"
	"github.com/toolbridge/toolbridge/bridge/transport"
	"github.com/toolbridge/toolbridge/bridge/transport/stream"
	"github.com/toolbridge/toolbridge/bridge/transport/ws"
)

var (
	serveCmdConfig = &common.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the tool bridge",
		Long:    `Start the tool bridge: the near side speaks newline-delimited JSON-RPC on stdin/stdout, the far side listens for a browser-tool agent on the configured transport. Configuration can be set via command line flags or environment variables. The format of the environment variables is TOOLBRIDGE_<flag> (e.g. TOOLBRIDGE_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "far"
	ServeCmd.PersistentFlags().String(key, "ws", cmdUtil.WrapString("Far-side transport the browser agent connects over. One of: ws, tcp, unix"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:8089", cmdUtil.WrapString("The address the far side listens on (host:port for ws/tcp, a socket path for unix)"))

	key = "ws-path"
	ServeCmd.PersistentFlags().String(key, "/ws", cmdUtil.WrapString("HTTP path that is upgraded to a WebSocket (ws transport only)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("Timeout in seconds for a bridged tool call before it fails with a timeout fault"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error). Logs go to stderr, stdout carries the protocol"))

	key = "metrics-addr"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for a Prometheus /metrics endpoint (e.g. localhost:9090). Disabled when empty"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on far-side connections (tcp transport only)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for far-side connections (in seconds, tcp transport only)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the read buffer for far-side sockets (in KB, tcp transport only)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the write buffer for far-side sockets (in KB, tcp transport only)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts it to the bridge configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse the far-side transport kind
	kind, err := common.ParseFarKind(viper.GetString("far"))
	if err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.CallTimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.MetricsAddr = viper.GetString("metrics-addr")
	serveCmdConfig.Far = common.FarConfig{
		Kind:            kind,
		Endpoint:        viper.GetString("endpoint"),
		WSPath:          viper.GetString("ws-path"),
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
	}

	if serveCmdConfig.CallTimeoutSecond <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", serveCmdConfig.CallTimeoutSecond)
	}
	if serveCmdConfig.Far.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}

	return nil
}

// run starts the bridge and blocks until the near side closes or a signal arrives
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(*serveCmdConfig)

	// pick the far-side listener
	var listener transport.IFarListener
	switch serveCmdConfig.Far.Kind {
	case common.FarKindWS:
		listener = ws.NewListener(serveCmdConfig.Far)
	case common.FarKindTCP:
		listener = stream.NewSocketListener("tcp", serveCmdConfig.Far)
	case common.FarKindUnix:
		listener = stream.NewSocketListener("unix", serveCmdConfig.Far)
	default:
		return fmt.Errorf("invalid far transport %s", serveCmdConfig.Far.Kind)
	}

	// the near side owns stdin/stdout, one JSON-RPC message per line
	near := stream.NewStreamTransport(os.Stdin, os.Stdout, nil, codec.NewLineCodec())

	table := calls.NewTable(serveCmdConfig.CallTimeout())
	remote := server.NewRemote(table)
	srv := server.NewServer(*serveCmdConfig, near, remote, tools.NewRegistry())

	// accept far-side connections in the background
	go func() {
		if err := listener.Serve(remote.Attach); err != nil {
			fmt.Fprintf(os.Stderr, "far listener stopped: %v\n", err)
		}
	}()

	// optional metrics endpoint
	if addr := serveCmdConfig.MetricsAddr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			_ = http.ListenAndServe(addr, mux)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := srv.Serve(ctx)
	_ = listener.Close()
	return err
}
