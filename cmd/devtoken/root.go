package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cir-dashboard/backend/config"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/pkg/jwt"
	"cir-dashboard/backend/pkg/redis"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "devtoken",
		Short:        "签发或注销本地开发用的 Access Token",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CIR_CONFIG"), "配置文件路径")

	cmd.AddCommand(newIssueCmd(&configPath))
	cmd.AddCommand(newRevokeCmd(&configPath))
	return cmd
}

func newIssueCmd(configPath *string) *cobra.Command {
	var (
		userID          string
		role            string
		subDepartmentID string
		ttl             time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "签发 Access Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(userID); err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if _, ok := model.ParseRole(role); !ok {
				return fmt.Errorf("invalid --role %q: 只能是 ADMIN / MANAGER / STAFF", role)
			}
			if subDepartmentID != "" {
				if _, err := uuid.Parse(subDepartmentID); err != nil {
					return fmt.Errorf("invalid --sub-department: %w", err)
				}
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if ttl > 0 {
				cfg.Auth.AccessTokenTTL = ttl
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, role, subDepartmentID)
			if err != nil {
				return fmt.Errorf("签发 Token 失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "员工 ID")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStaff), "角色")
	cmd.Flags().StringVar(&subDepartmentID, "sub-department", "", "子部门 ID（可选）")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "有效期，默认取 auth.access_token_ttl")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRevokeCmd(configPath *string) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "将 Token 加入 Redis 黑名单",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			claims, err := jwt.NewManager(&cfg.Auth).ParseToken(token)
			if err != nil {
				return fmt.Errorf("解析 Token 失败: %w", err)
			}

			rdb, err := redis.NewClient(&cfg.Redis, zap.NewNop())
			if err != nil {
				return err
			}
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			remaining := time.Until(claims.ExpiresAt.Time)
			if err := rdb.BlacklistToken(ctx, claims.ID, remaining); err != nil {
				return fmt.Errorf("写入黑名单失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已注销 jti=%s，剩余有效期 %s\n", claims.ID, remaining.Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "待注销的 Access Token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
