package memory

import "confluenze-quiz-service/internal/domain"

// DefaultQuestionBank is the fixed 20-item debugging bank for the event.
// Answer holds the correct option index; it is stripped before questions
// reach participant clients.
func DefaultQuestionBank() []domain.Question {
	return []domain.Question{
		{
			ID:       1,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        String s1 = "JAVA";
        String s2 = "JA" + "VA";
        String s3 = "JA";
        String s4 = s3 + "VA";
        System.out.println((s1 == s2) + " " + (s1 == s4));
    }
}`,
			Prompt:  "Determine the output of this reference comparison sequence.",
			Options: []string{"true true", "true false", "false true", "false false"},
			Answer:  1,
		},
		{
			ID:       2,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    int x = 1, y = 1;
    if (x == y || ++x > 1) {
        printf("%d %d", x, y);
    }
    return 0;
}`,
			Prompt:  "Analyze the short-circuiting behavior of this logical OR operation.",
			Options: []string{"1 1", "2 1", "1 2", "2 2"},
			Answer:  0,
		},
		{
			ID:       3,
			Language: "C++",
			Code: `#include <iostream>
int main() {
    int i = 5;
    int &ref = i;
    int j = 10;
    ref = j;
    j = 15;
    std::cout << i << " " << ref;
    return 0;
}`,
			Prompt:  "Predict the final values of the original variable and its reference.",
			Options: []string{"5 10", "10 10", "10 15", "15 15"},
			Answer:  1,
		},
		{
			ID:       4,
			Language: "Java",
			Code: `class A {
    A() { System.out.print("A"); }
}
class B extends A {
    B() { this(10); System.out.print("B"); }
    B(int x) { System.out.print("C"); }
}
public class Main {
    public static void main(String[] args) {
        new B();
    }
}`,
			Prompt:  "Trace the constructor invocation chain to determine the output.",
			Options: []string{"ACB", "ABC", "CAB", "BC"},
			Answer:  0,
		},
		{
			ID:       5,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    char a = 255;
    if (a == 255) printf("Equal");
    else printf("Not Equal");
    return 0;
}`,
			Prompt:  "Evaluate the comparison after promotion of a signed char (assuming 8-bit char).",
			Options: []string{"Equal", "Not Equal", "Runtime Error", "Compilation Error"},
			Answer:  1,
		},
		{
			ID:       6,
			Language: "C++",
			Code: `#include <iostream>
struct X {
    X() { std::cout << "1"; }
    X(const X&) { std::cout << "2"; }
};
X func(X obj) { return obj; }
int main() {
    X x1;
    func(x1);
    return 0;
}`,
			Prompt:  "How many copy operations are initiated by this function call (excluding elision)?",
			Options: []string{"12", "121", "122", "1"},
			Answer:  2,
		},
		{
			ID:       7,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        int x = 0;
        for (int i = 0; i < 100; i++) {
            x = x++;
        }
        System.out.println(x);
    }
}`,
			Prompt:  "Predict the state of \"x\" after 100 iterations of the post-increment assignment.",
			Options: []string{"100", "0", "99", "1"},
			Answer:  1,
		},
		{
			ID:       8,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    int i = 5;
    printf("%d %d %d", i++, i++, i++);
    return 0;
}`,
			Prompt:  "Determine the output (assuming behavior defined by specific common compiler order).",
			Options: []string{"5 6 7", "7 6 5", "5 5 5", "Undefined Behavior"},
			Answer:  3,
		},
		{
			ID:       9,
			Language: "C++",
			Code: `#include <iostream>
int main() {
    int a = 1;
    int b = 2;
    int c = 3;
    int res = (a++, ++b, c++);
    std::cout << res;
    return 0;
}`,
			Prompt:  "Analyze the comma operator evaluation and determine the assigned result.",
			Options: []string{"1", "3", "4", "6"},
			Answer:  1,
		},
		{
			ID:       10,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        try {
            int x = 0;
            System.out.println(1 / x);
        } catch (Exception e) {
            System.out.print("E");
        } finally {
            System.out.print("F");
        }
    }
}`,
			Prompt:  "Predict the catch-finally execution sequence.",
			Options: []string{"E", "F", "EF", "FE"},
			Answer:  2,
		},
		{
			ID:       11,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    int a[3][2] = {{1,2}, {3,4}, {5,6}};
    printf("%d", **(a + 1));
    return 0;
}`,
			Prompt:  "Determine the value accessed through double dereferencing of the pointer to array.",
			Options: []string{"1", "2", "3", "4"},
			Answer:  2,
		},
		{
			ID:       12,
			Language: "C++",
			Code: `#include <iostream>
class A {
public:
    virtual void f() { std::cout << "A"; }
};
class B : public A {
private:
    void f() { std::cout << "B"; }
};
int main() {
    A* p = new B();
    p->f();
    return 0;
}`,
			Prompt:  "What occurs when a private override is accessed via a public base class pointer?",
			Options: []string{"Compilation Error (f is private)", "A is printed", "B is printed", "Runtime Access Violation"},
			Answer:  2,
		},
		{
			ID:       13,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        double d = 10.0 / 0.0;
        System.out.println(d);
    }
}`,
			Prompt:  "Predict the behavior of floating-point division by zero in Java.",
			Options: []string{"ArithmeticException", "0.0", "Infinity", "NaN"},
			Answer:  2,
		},
		{
			ID:       14,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    int x = 10;
    static int y = x;
    printf("%d", y);
    return 0;
}`,
			Prompt: "Why does this code fail to compile in most C compilers?",
			Options: []string{
				"static variables cannot be named y",
				"static variables must be initialized with constant expressions",
				"x must be declared as static as well",
				"Initialization of y must happen in a separate line",
			},
			Answer: 1,
		},
		{
			ID:       15,
			Language: "C++",
			Code: `#include <iostream>
struct S {
    int x;
    S() : x(1) {}
    S(int v) : x(v) {}
};
int main() {
    S s();
    // std::cout << s.x; (would fail)
    return 0;
}`,
			Prompt: "Why is \"S s();\" considered the \"Most Vexing Parse\" in C++?",
			Options: []string{
				"It creates an object named s",
				"It is treated as a function declaration returning S",
				"It is a syntax error",
				"It calls the constructor with 0",
			},
			Answer: 1,
		},
		{
			ID:       16,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        int x = 10;
        x = ~x;
        System.out.println(x);
    }
}`,
			Prompt:  "Calculate the result of the bitwise NOT operation on 10.",
			Options: []string{"-10", "-11", "9", "0"},
			Answer:  1,
		},
		{
			ID:       17,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    int i = 5;
    int j = i++;
    int k = ++i;
    printf("%d %d %d", i, j, k);
    return 0;
}`,
			Prompt:  "Determine the final state of i, j, and k.",
			Options: []string{"7 5 7", "6 5 7", "7 6 7", "6 6 6"},
			Answer:  0,
		},
		{
			ID:       18,
			Language: "C++",
			Code: `#include <iostream>
int main() {
    int arr[] = {1, 2, 3};
    int* p = arr + 1;
    std::cout << p[-1];
    return 0;
}`,
			Prompt: "Is it valid to use a negative index on a pointer in C++?",
			Options: []string{
				"No, runtime error",
				"Yes, it accesses the element at (p - 1), which is 1",
				"No, compilation error",
				"Yes, it prints a random address",
			},
			Answer: 1,
		},
		{
			ID:       19,
			Language: "Java",
			Code: `public class Main {
    public static void main(String[] args) {
        String s = "HELLO";
        s.toLowerCase();
        System.out.println(s);
    }
}`,
			Prompt:  "Predict the output based on String immutability.",
			Options: []string{"hello", "HELLO", "Runtime Error", "H"},
			Answer:  1,
		},
		{
			ID:       20,
			Language: "C",
			Code: `#include <stdio.h>
int main() {
    printf("%d", sizeof('A'));
    return 0;
}`,
			Prompt:  "What is the size of a character literal in C compared to a char variable?",
			Options: []string{"1", "Same as sizeof(int), usually 4", "Depends on the character", "2"},
			Answer:  1,
		},
	}
}
