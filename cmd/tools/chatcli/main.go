package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/ai"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/chat"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/weather"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	timeout := flag.Duration("timeout", 60*time.Second, "单条命令的等待超时时间")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	var replier chat.Replier
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(cfg.AI)
		if err != nil {
			log.Printf("[WARN] AI 服务初始化失败，聊天功能不可用: %v", err)
		} else {
			replier = aiSvc
		}
	} else {
		log.Println("[WARN] API_KEY 未配置，聊天功能不可用")
	}

	chatSvc := chat.NewService(replier)

	var weatherSvc *weather.Service
	if cfg.Weather.Enabled {
		weatherSvc = weather.NewService(cfg.Weather)
	} else {
		log.Println("[WARN] 天气服务未启用，alerts/forecast 命令不可用")
	}

	session, err := chatSvc.CreateSession(context.Background())
	if err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}

	fmt.Println("Connected. Plain text chats with the model; weather commands query NWS.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nQuery (alerts <STATE> | forecast <LAT> <LON> | quit): ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		runCommand(ctx, chatSvc, weatherSvc, session.ID, line)
		cancel()
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("读取输入失败: %v", err)
	}
}

func runCommand(ctx context.Context, chatSvc *chat.Service, weatherSvc *weather.Service, sessionID, line string) {
	switch {
	case strings.HasPrefix(line, "alerts "):
		if weatherSvc == nil {
			fmt.Println("Weather service is disabled.")
			return
		}

		state := strings.TrimSpace(strings.TrimPrefix(line, "alerts "))
		report, err := weatherSvc.ActiveAlerts(ctx, state)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(report)

	case strings.HasPrefix(line, "forecast "):
		if weatherSvc == nil {
			fmt.Println("Weather service is disabled.")
			return
		}

		parts := strings.Fields(line)
		if len(parts) != 3 {
			fmt.Println("Usage: forecast <LAT> <LON>")
			return
		}

		lat, latErr := strconv.ParseFloat(parts[1], 64)
		lon, lonErr := strconv.ParseFloat(parts[2], 64)
		if latErr != nil || lonErr != nil {
			fmt.Println("Usage: forecast <LAT> <LON>")
			return
		}

		report, err := weatherSvc.Forecast(ctx, lat, lon)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(report)

	default:
		receipt, err := chatSvc.Submit(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if receipt == nil {
			return
		}

		reply, err := receipt.Wait(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(reply.Content)
	}
}
