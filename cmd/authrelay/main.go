// authrelay es la herramienta operativa del framework: firma árboles
// auth, verifica envelopes recibidos y muestra el entorno resuelto.
// Útil para depurar integraciones sin levantar la aplicación.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/observability/logger"
	"github.com/authrelay/authrelay/internal/relying"
	"github.com/authrelay/authrelay/internal/signature"
	"github.com/authrelay/authrelay/internal/util"
)

func main() {
	_ = godotenv.Load(".env")

	logger.Init(logger.Config{
		Env:     os.Getenv("APP_ENV"),
		Level:   os.Getenv("LOG_LEVEL"),
		Service: "authrelay",
	})
	defer logger.Sync()

	var configPath string

	root := &cobra.Command{
		Use:   "authrelay",
		Short: "Herramientas de firma y verificación de envelopes",
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("AUTH_CONFIG"), "ruta del config YAML (env AUTH_CONFIG)")

	loadEnv := func() (*config.Environment, error) {
		return config.Load(configPath)
	}

	signCmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Firma un árbol auth (JSON por stdin o archivo) y emite el envelope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			data, err := readInput(args)
			if err != nil {
				return err
			}
			n, err := authtree.Decode(data)
			if err != nil {
				return fmt.Errorf("parse auth tree: %w", err)
			}
			m, ok := n.(authtree.Map)
			if !ok {
				return fmt.Errorf("auth tree must be a JSON object")
			}
			normalized := authtree.Normalize(m).(authtree.Map)
			ts := time.Now().UTC().Format(envelope.TimestampFormat)
			sig, err := signature.Sign(normalized, ts, env.Security.Salt, env.Security.Iteration)
			if err != nil {
				return err
			}
			out, err := envelope.NewAuth(normalized, ts, sig).Marshal()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "Verifica firma y frescura de un envelope (JSON por stdin o archivo)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			data, err := readInput(args)
			if err != nil {
				return err
			}
			e, err := envelope.Decode(data)
			if err != nil {
				return fmt.Errorf("parse envelope: %w", err)
			}
			v := relying.NewVerifier(env, nil)
			if err := v.Validate(e); err != nil {
				return err
			}
			if e.IsError() {
				fmt.Printf("valid error envelope from %s: %s\n", e.Provider(), e.Error.Message)
				return nil
			}
			fmt.Printf("valid auth envelope from %s (timestamp %s)\n", e.Provider(), e.Timestamp)
			return nil
		},
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Muestra el diccionario de entorno resuelto (salt enmascarado)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			dict := env.Dict()
			dict[config.KeySecuritySalt] = util.MaskSecret(dict[config.KeySecuritySalt])
			keys := make([]string, 0, len(dict))
			for k := range dict {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s=%s\n", k, dict[k])
			}
			return nil
		},
	}

	root.AddCommand(signCmd, verifyCmd, envCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}
