// @title English Tutor 后端 API
// @version 1.0
// @description 英语导师课程规划服务：按学生表现规划课程、评分作答、驱动学习计划与导师对话。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"english_tutor_backend/internal/app"
	"english_tutor_backend/internal/config"
	"english_tutor_backend/internal/service"
	"english_tutor_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "English tutor lesson-planning backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.ForceMigrate = true

		application, err := app.Bootstrap(cfg)
		if err != nil {
			return err
		}
		defer application.Close()
		defer logger.Log.Sync()

		log.Println("数据库迁移完成，退出程序")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a content catalog into the database",
	Long: "Reads a YAML content catalog from a local file or a MinIO object, upserts its " +
		"learning units and study-plan modules and computes unit embeddings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.ForceMigrate = true

		application, err := app.Bootstrap(cfg)
		if err != nil {
			return err
		}
		defer application.Close()
		defer logger.Log.Sync()

		src, err := catalogSource(cmd, cfg)
		if err != nil {
			return err
		}
		skip, _ := cmd.Flags().GetBool("skip-embeddings")

		stats, err := application.Catalog().Seed(context.Background(), src, service.SeedOptions{SkipEmbeddings: skip})
		if err != nil {
			return fmt.Errorf("seed %s: %w", src, err)
		}
		logger.Log.Info("Catalog seeded",
			zap.Stringer("source", src),
			zap.Int("units", stats.Units),
			zap.Int("embedded", stats.Embedded),
			zap.Int("modules", stats.Modules))
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d units (%d embedded), %d modules from %s\n",
			stats.Units, stats.Embedded, stats.Modules, src)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs", "配置文件目录（包含 config.yaml）")

	seedCmd.Flags().String("file", "", "本地目录文件路径")
	seedCmd.Flags().String("bucket", "", "MinIO 桶名，默认取 storage.minio_bucket")
	seedCmd.Flags().String("object", "", "MinIO 对象名")
	seedCmd.Flags().Bool("skip-embeddings", false, "只导入内容，不计算向量")
	seedCmd.MarkFlagsMutuallyExclusive("file", "object")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("config")

	application := app.NewApp(cfg)
	application.Run(filepath.Join(dir, "config.yaml"))
	return nil
}

func catalogSource(cmd *cobra.Command, cfg *config.Config) (service.CatalogSource, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		return service.FileCatalogSource{Path: file}, nil
	}

	object, _ := cmd.Flags().GetString("object")
	if object == "" {
		return nil, fmt.Errorf("either --file or --object is required")
	}
	bucket, _ := cmd.Flags().GetString("bucket")
	src, err := service.NewMinioCatalogSource(cfg.Storage, bucket, object)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
