package main

import (
	"bandctl"
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

func main() {
	// 1. 配置串口参数
	// 请根据实际情况修改串口设备名
	portName := "/dev/ttyACM0"
	if len(os.Args) > 1 {
		portName = os.Args[1]
	}
	baudRate := 115200

	fmt.Printf("Connecting to sensor on %s...\n", portName)

	// 2. 创建连接实例
	link := bandctl.NewSerialLink(portName, baudRate, time.Second)

	// 3. 打开连接
	if err := link.Open(); err != nil {
		log.Fatalf("Failed to open serial port: %v\n", err)
	}
	defer link.Close()

	act := link.Actuator(200 * time.Millisecond)
	fmt.Println("Connected. Type 1/on or 0/off and press Enter.")
	fmt.Println("Type 'exit' or 'quit' to stop.")

	// 4. 循环读取控制台输入
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		var cmd bandctl.Command
		switch input {
		case "1", "on":
			cmd = bandctl.CommandOn
		case "0", "off":
			cmd = bandctl.CommandOff
		default:
			fmt.Println("Unknown command.")
			continue
		}

		fmt.Printf("Sending: %s\n", cmd)
		if err := act.Send(context.Background(), cmd); err != nil {
			log.Printf("Error sending command: %v\n", err)
		}
	}

	fmt.Println("Bye.")
}
